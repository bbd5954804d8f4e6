package commands

import (
	"errors"

	"burna/internal/domain"
	"burna/internal/link"
	"burna/internal/store"
)

// Describe turns an error into a message for people. An unavailable chat,
// a full chat and a network failure each read differently.
func Describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "this chat is unavailable: it does not exist, was terminated, or has expired"
	case errors.Is(err, domain.ErrFull):
		return "this chat is full"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "cannot reach the relay; check your connection and try again (" + err.Error() + ")"
	case errors.Is(err, domain.ErrKeyMissing):
		return "this device has no key for the chat; ask for the full link including the #k= part"
	case errors.Is(err, domain.ErrDecoding):
		return "the key in the link is malformed"
	case errors.Is(err, link.ErrInvalidLink):
		return "not a chat link: " + err.Error()
	case errors.Is(err, store.ErrWrongPassphrase):
		return "wrong passphrase for the stored keys (-p)"
	case errors.Is(err, domain.ErrCreation):
		return "the relay rejected the request: " + err.Error()
	default:
		return err.Error()
	}
}
