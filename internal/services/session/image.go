package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"burna/internal/domain"
)

// MaxImageBytes caps the encoded size of an image data URI.
const MaxImageBytes = 1 << 20

var (
	// ErrEmptyMessage is returned for blank text messages.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrInvalidImage is returned for payloads that are not a base64
	// data:image/* URI within MaxImageBytes.
	ErrInvalidImage = errors.New("invalid image")
)

// SendText sends a UTF-8 text message.
func (s *Session) SendText(ctx context.Context, text string) (domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	if !utf8.ValidString(text) {
		return domain.Message{}, fmt.Errorf("send: text is not utf-8")
	}
	return s.Send(ctx, domain.KindText, []byte(text))
}

// SendImage sends an image given as a data URI.
func (s *Session) SendImage(ctx context.Context, dataURI string) (domain.Message, error) {
	if err := ValidateImage(dataURI); err != nil {
		return domain.Message{}, err
	}
	return s.Send(ctx, domain.KindImage, []byte(dataURI))
}

// ValidateImage checks that dataURI is a base64 data:image/* URI of at most
// MaxImageBytes.
func ValidateImage(dataURI string) error {
	if len(dataURI) > MaxImageBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidImage, len(dataURI), MaxImageBytes)
	}
	header, data, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return fmt.Errorf("%w: not a base64 data:image/* uri", ErrInvalidImage)
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return nil
}

// EncodeImage turns raw image bytes into a data URI, sniffing the content
// type. Non-image content is rejected.
func EncodeImage(raw []byte) (string, error) {
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: content type %s", ErrInvalidImage, mime)
	}
	uri := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
	if len(uri) > MaxImageBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidImage, len(uri), MaxImageBytes)
	}
	return uri, nil
}
