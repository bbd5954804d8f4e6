// Package relay provides an HTTP implementation of domain.Backend and a
// websocket implementation of domain.Subscriber for burna's relay.
//
// The relay is the persistent store and publish/subscribe channel shared by
// all participants. It only ever receives ciphertext; key material travels
// in link fragments, which this package never sends.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Statuses map onto the domain errors:
//   - 404 is domain.ErrNotFound (missing, terminated or expired session)
//   - 409 is domain.ErrFull
//   - 429, 5xx and transport failures are domain.ErrStoreUnavailable
//   - any other 4xx is domain.ErrCreation
package relay
