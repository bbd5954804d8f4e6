package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"burna/internal/app"
	clog "burna/internal/log"
)

var (
	home       string
	passphrase string
	relayURL   string
	logEnv     string
	verbose    bool
	appCtx     *app.Wire
)

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "burna",
		Short:         "End-to-end encrypted, self-destructing group chat",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			clog.Init(logEnv)
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger := log.Logger.Level(level)

			if home == "" {
				h, err := app.DefaultHome()
				if err != nil {
					return err
				}
				home = h
			}
			if relayURL == "" {
				relayURL = app.DefaultRelay()
			}
			w, err := app.NewWire(app.Config{
				Home:       home,
				RelayURL:   relayURL,
				Passphrase: passphrase,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			appCtx = w
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "device dir (default $BURNA_HOME or ~/.burna)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect stored session keys")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (default $BURNA_RELAY or "+app.DefaultRelayURL+")")
	root.PersistentFlags().StringVar(&logEnv, "env", "dev", "log format: dev for console, anything else for JSON")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(idCmd(), createCmd(), joinCmd(), sendCmd(), historyCmd(), countCmd(), terminateCmd())
	return root
}

// Execute runs the CLI; interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRoot().ExecuteContext(ctx)
}
