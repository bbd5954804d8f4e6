package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"burna/internal/link"
)

func terminateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "terminate <link>",
		Short: "End a session for everyone and erase its key here",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := link.Parse(args[0])
			if err != nil {
				return err
			}
			if err := appCtx.Sessions.Terminate(cmd.Context(), l.SessionID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session terminated")
			return nil
		},
	}
}
