package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"burna/internal/services/session"
)

// send <link> [text]: join and send one message.
func sendCmd() *cobra.Command {
	var imagePath string
	cmd := &cobra.Command{
		Use:   "send <link> [text]",
		Short: "Send one text or image message",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 2) == (imagePath != "") {
				return fmt.Errorf("give either a text argument or --image")
			}
			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if imagePath != "" {
				if err := sendImageFile(cmd, s, imagePath); err != nil {
					return err
				}
			} else if _, err := s.SendText(cmd.Context(), args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "path of an image to send instead of text")
	cmd.Flags().BoolVar(&keyless, "keyless", false, "join without a key (others cannot read what you send)")
	return cmd
}

func sendImageFile(cmd *cobra.Command, s *session.Session, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	uri, err := session.EncodeImage(raw)
	if err != nil {
		return err
	}
	_, err = s.SendImage(cmd.Context(), uri)
	return err
}
