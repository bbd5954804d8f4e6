package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func idCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print this device's anonymous id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			anon, err := appCtx.Identity.AnonymousID()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), anon)
			return nil
		},
	}
}
