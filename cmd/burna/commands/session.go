package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"burna/internal/domain"
	"burna/internal/link"
	"burna/internal/services/session"
)

// keyless lets a join without any key proceed with a fresh, unrelated key.
// Such a device can send but cannot read anyone else's messages.
var keyless bool

// openSession joins the session named by a link or bare id.
func openSession(ctx context.Context, shared string) (*session.Session, error) {
	l, err := link.Parse(shared)
	if err != nil {
		return nil, err
	}
	return appCtx.Sessions.Join(ctx, l.SessionID, session.JoinOptions{
		Key:              l.Key,
		AllowKeylessJoin: keyless,
	})
}

func printMessage(w io.Writer, m domain.DecryptedMessage) {
	who := shortID(m.Sender)
	if m.Mine {
		who = "me"
	}
	left := time.Until(m.ExpiresAt).Round(time.Second)
	body := m.Text
	if m.Kind == domain.KindImage {
		body = fmt.Sprintf("[image, %d bytes]", len(m.Image))
	}
	fmt.Fprintf(w, "%s %-10s %s  (expires in %s)\n", m.Timestamp.Local().Format("15:04:05"), who, body, left)
}

func shortID(id domain.AnonymousID) string {
	s := id.String()
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
