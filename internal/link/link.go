// Package link formats and parses shareable chat links.
//
// A link has the form <base>/chat/<session-id>#k=<key>. The session key
// rides in the URL fragment, which HTTP clients never transmit, so the
// relay only ever learns the session id.
package link

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"burna/internal/crypto"
	"burna/internal/domain"
)

const (
	chatSegment = "chat"
	keyParam    = "k"
)

// ErrInvalidLink is returned for input that is neither a chat link nor a
// bare session id.
var ErrInvalidLink = errors.New("invalid chat link")

// Link is a parsed chat link. Key is the encoded key from the fragment and
// is empty when the link carried none.
type Link struct {
	SessionID domain.SessionID
	Key       string
}

// HasKey reports whether the link carried key material.
func (l Link) HasKey() bool { return l.Key != "" }

// Format builds a shareable link. A zero key produces a link without a
// fragment.
func Format(base string, id domain.SessionID, key domain.SessionKey) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteString("/" + chatSegment + "/")
	b.WriteString(url.PathEscape(id.String()))
	if !key.IsZero() {
		b.WriteString("#" + keyParam + "=")
		b.WriteString(crypto.EncodeKey(key))
	}
	return b.String()
}

// Parse accepts a full link, a path such as /chat/<id>#k=..., or a bare
// session id, optionally followed by a key fragment.
func Parse(s string) (Link, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Link{}, ErrInvalidLink
	}
	u, err := url.Parse(s)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	raw := u.Path
	if segs := strings.Split(strings.Trim(u.Path, "/"), "/"); len(segs) >= 2 {
		if segs[len(segs)-2] != chatSegment {
			return Link{}, fmt.Errorf("%w: no /%s/ segment", ErrInvalidLink, chatSegment)
		}
		raw = segs[len(segs)-1]
	} else if len(segs) == 1 && u.Host == "" {
		raw = segs[0]
	} else {
		return Link{}, fmt.Errorf("%w: missing session id", ErrInvalidLink)
	}

	parsed, err := uuid.Parse(raw)
	if err != nil {
		return Link{}, fmt.Errorf("%w: session id: %v", ErrInvalidLink, err)
	}
	l := Link{SessionID: domain.SessionID(parsed.String())}

	if u.Fragment != "" {
		q, err := url.ParseQuery(u.Fragment)
		if err != nil {
			return Link{}, fmt.Errorf("%w: fragment: %v", ErrInvalidLink, err)
		}
		if k := q.Get(keyParam); k != "" {
			if _, err := crypto.DecodeKey(k); err != nil {
				return Link{}, err
			}
			l.Key = k
		}
	}
	return l, nil
}
