// Package service is the relay's store: sessions, participants and sealed
// messages in a gorm database, with every accepted write published to the
// realtime hub.
//
// SessionService implements domain.Backend directly, so the HTTP handlers
// are thin and the same semantics can be exercised in-process.
//
// Rules enforced here:
//   - a session past its expiry is treated exactly like a terminated one
//   - joining is atomic: an existing member is accepted again, otherwise the
//     participant is inserted only while the count is below the cap
//   - a message's expiry never exceeds createdAt + the session TTL
//   - message inserts and their events are serialised, so subscribers see
//     messages in storage order and a terminated event after all of them
package service
