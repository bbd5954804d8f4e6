// Package lifecycle is the Lifecycle Manager. It computes message expiry
// from session policy and filters what a client displays down to messages
// that have not yet expired.
//
// Pruning here is a visibility contract for one client only. It deletes
// nothing from the relay; durable deletion is the reaper's job, and expired
// ciphertext may remain in the store until the next reap.
package lifecycle
