package lifecycle

import "time"

// DefaultPruneInterval matches the granularity of a user-visible countdown.
const DefaultPruneInterval = time.Second

// Expiring is anything with an absolute expiry instant.
type Expiring interface {
	Expiry() time.Time
}

// ExpiryOf returns createdAt + ttlSeconds.
func ExpiryOf(createdAt time.Time, ttlSeconds int) time.Time {
	return createdAt.Add(time.Duration(ttlSeconds) * time.Second)
}

// Expired reports whether m is no longer visible at now. A message expiring
// exactly at now is expired.
func Expired(m Expiring, now time.Time) bool {
	return !m.Expiry().After(now)
}

// Prune returns the messages with Expiry() > now, preserving order. The input
// slice is not modified.
func Prune[M Expiring](msgs []M, now time.Time) []M {
	out := make([]M, 0, len(msgs))
	for _, m := range msgs {
		if !Expired(m, now) {
			out = append(out, m)
		}
	}
	return out
}
