package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <link>",
		Short: "Print the number of participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			n, err := s.ParticipantCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d participants\n", n, s.Chat().MaxParticipants)
			return nil
		},
	}
}
