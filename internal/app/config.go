package app

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home       string       // device directory, e.g. $HOME/.burna
	RelayURL   string       // relay base URL, e.g. http://127.0.0.1:8080
	Passphrase string       // optional; seals the keyring at rest
	HTTP       *http.Client // optional; defaults to a client with a 30s timeout
	Logger     zerolog.Logger
}
