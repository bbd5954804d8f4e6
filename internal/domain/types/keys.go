package types

// SessionKeySize is the length of a session key in bytes (256 bits).
const SessionKeySize = 32

// SessionKey is the symmetric key shared by the participants of one session.
//
// It formats as a redacted placeholder so it never leaks through logging.
type SessionKey [SessionKeySize]byte

// IsZero reports whether the key is all zeros (unset or wiped).
func (k SessionKey) IsZero() bool { return k == SessionKey{} }

// String implements fmt.Stringer.
func (SessionKey) String() string { return "SessionKey(redacted)" }

// GoString implements fmt.GoStringer.
func (SessionKey) GoString() string { return "SessionKey(redacted)" }
