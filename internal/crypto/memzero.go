package crypto

import (
	"crypto/subtle"
	"runtime"

	"burna/internal/domain"
)

// Wipe zeroes the provided buffer. This is best-effort and aims to
// reduce the chance of the compiler eliding the write.
//
//go:noinline
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	runtime.KeepAlive(&b)
}

// WipeKey zeroes a session key in place.
func WipeKey(key *domain.SessionKey) {
	if key == nil {
		return
	}
	Wipe(key[:])
}
