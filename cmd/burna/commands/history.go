package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <link>",
		Short: "Print the messages still visible in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := s.LoadHistory(cmd.Context()); err != nil {
				return err
			}
			msgs := s.Visible()
			if len(msgs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no messages")
				return nil
			}
			for _, m := range msgs {
				printMessage(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}
