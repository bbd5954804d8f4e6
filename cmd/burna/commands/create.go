package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"burna/internal/crypto"
	"burna/internal/link"
)

func createCmd() *cobra.Command {
	var (
		maxParticipants int
		ttl             int
		base            string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session and print its share link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chat, key, err := appCtx.Sessions.Create(cmd.Context(), maxParticipants, ttl)
			if err != nil {
				return err
			}
			defer crypto.WipeKey(&key)
			if base == "" {
				base = relayURL
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:     %s\n", chat.ID)
			fmt.Fprintf(out, "Link:        %s\n", link.Format(base, chat.ID, key))
			fmt.Fprintf(out, "Fingerprint: %s\n", crypto.Fingerprint(key))
			fmt.Fprintf(out, "Capacity %d, messages expire after %ds, session ends %s\n",
				chat.MaxParticipants, chat.MessageTTLSeconds, chat.ExpiresAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintln(out, "Share the whole link privately: the part after # is the key.")
			return nil
		},
	}
	cmd.Flags().IntVarP(&maxParticipants, "max", "n", 2, "maximum participants")
	cmd.Flags().IntVarP(&ttl, "ttl", "t", 60, "message lifetime in seconds")
	cmd.Flags().StringVar(&base, "base", "", "base URL for the share link (default the relay URL)")
	return cmd
}
