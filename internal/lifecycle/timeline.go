package lifecycle

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"burna/internal/domain"
)

// Timeline is a client's in-memory view of one session: ordered by
// timestamp, deduplicated by message id and safe for concurrent use.
//
// History and live delivery both feed Add; a message seen once is never
// added again, even after it has been pruned.
type Timeline struct {
	mu   sync.Mutex
	msgs []domain.DecryptedMessage
	seen map[domain.MessageID]struct{}
}

// NewTimeline returns an empty Timeline.
func NewTimeline() *Timeline {
	return &Timeline{seen: make(map[domain.MessageID]struct{})}
}

// Add inserts messages not seen before and returns those that were new.
// Equal timestamps keep arrival order.
func (t *Timeline) Add(msgs ...domain.DecryptedMessage) []domain.DecryptedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	var added []domain.DecryptedMessage
	for _, m := range msgs {
		if _, dup := t.seen[m.Key()]; dup {
			continue
		}
		t.seen[m.Key()] = struct{}{}
		i := sort.Search(len(t.msgs), func(i int) bool {
			return t.msgs[i].Timestamp.After(m.Timestamp)
		})
		t.msgs = append(t.msgs, domain.DecryptedMessage{})
		copy(t.msgs[i+1:], t.msgs[i:])
		t.msgs[i] = m
		added = append(added, m)
	}
	return added
}

// Messages returns a copy of the current view.
func (t *Timeline) Messages() []domain.DecryptedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.DecryptedMessage(nil), t.msgs...)
}

// Len returns the number of visible messages.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}

// Prune drops messages expired at now and returns them.
func (t *Timeline) Prune(now time.Time) []domain.DecryptedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []domain.DecryptedMessage
	kept := t.msgs[:0]
	for _, m := range t.msgs {
		if Expired(m, now) {
			removed = append(removed, m)
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(t.msgs); i++ {
		t.msgs[i] = domain.DecryptedMessage{}
	}
	t.msgs = kept
	return removed
}

// Watch prunes the timeline every interval on clk until ctx is done or stop
// is called. onExpire, if set, receives each non-empty batch of removed
// messages on the watcher goroutine. The ticker is armed before Watch
// returns.
func (t *Timeline) Watch(
	ctx context.Context,
	clk clock.Clock,
	interval time.Duration,
	onExpire func([]domain.DecryptedMessage),
) (stop func()) {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = DefaultPruneInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	ticker := clk.Ticker(interval)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := t.Prune(now); len(removed) > 0 && onExpire != nil {
					onExpire(removed)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
