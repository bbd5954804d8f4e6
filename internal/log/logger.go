// Package log configures the process-wide zerolog logger.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets log.Logger for env. "dev" gets a human-readable console writer on
// stderr, anything else gets JSON lines.
func Init(env string) {
	InitTo(os.Stderr, env)
}

// InitTo is Init with an explicit destination.
func InitTo(w io.Writer, env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "dev" {
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(cw).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel parses lvl (debug, info, warn, ...) and applies it globally.
// An empty string leaves the level unchanged.
func SetLevel(lvl string) error {
	if lvl == "" {
		return nil
	}
	l, err := zerolog.ParseLevel(lvl)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)
	return nil
}
