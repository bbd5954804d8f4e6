package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"burna/internal/domain"
	"burna/internal/services/session"
)

const joinHelp = `Type a message and press enter to send it. Commands:
  /image <path>  send an image
  /count         show the number of participants
  /link          show the share link for this session
  /terminate     end the session for everyone
  /quit          leave without ending the session`

func joinCmd() *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "join <link>",
		Short: "Join a session from a link and chat interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, args[0])
			if err != nil {
				return err
			}
			if base == "" {
				base = relayURL
			}

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			say := func(format string, a ...any) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(out, format+"\n", a...)
			}
			show := func(m domain.DecryptedMessage) {
				mu.Lock()
				defer mu.Unlock()
				printMessage(out, m)
			}

			chat := s.Chat()
			say("Joined %s as %s", s.ID(), s.AnonymousID())
			say("Key fingerprint %s. Messages expire after %s.", s.Fingerprint(), chat.MessageTTL())
			say(joinHelp)

			if err := s.Attach(ctx, show); err != nil {
				return err
			}
			defer s.Unsubscribe()
			stop := s.WatchExpiry(ctx, func(expired []domain.DecryptedMessage) {
				say("(%d message(s) expired)", len(expired))
			})
			defer stop()

			lines := readLines(cmd.InOrStdin())
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-s.Done():
					say("The session was terminated.")
					return nil
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					quit, err := handleLine(cmd, s, base, line, say, show)
					if err != nil {
						if errors.Is(err, domain.ErrNotFound) {
							return err
						}
						say("error: %s", Describe(err))
					}
					if quit {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "base URL for /link (default the relay URL)")
	cmd.Flags().BoolVar(&keyless, "keyless", false, "join without a key (others cannot read what you send)")
	return cmd
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

// handleLine runs one line of input. It reports true when the user is done.
func handleLine(
	cmd *cobra.Command,
	s *session.Session,
	base, line string,
	say func(string, ...any),
	show func(domain.DecryptedMessage),
) (bool, error) {
	ctx := cmd.Context()
	line = strings.TrimSpace(line)
	verb, rest, _ := strings.Cut(line, " ")
	switch verb {
	case "":
		return false, nil
	case "/quit":
		return true, nil
	case "/help":
		say(joinHelp)
	case "/count":
		n, err := s.ParticipantCount(ctx)
		if err != nil {
			return false, err
		}
		say("%d/%d participants", n, s.Chat().MaxParticipants)
	case "/link":
		say("%s", s.Link(base))
	case "/terminate":
		if err := s.Terminate(ctx); err != nil {
			return false, err
		}
		say("Session terminated for everyone.")
		return true, nil
	case "/image":
		if err := sendImageFile(cmd, s, strings.TrimSpace(rest)); err != nil {
			return false, err
		}
		say("(image sent)")
	default:
		row, err := s.SendText(ctx, line)
		if err != nil {
			return false, err
		}
		show(domain.DecryptedMessage{
			ID:        row.ID,
			Kind:      domain.KindText,
			Text:      line,
			Sender:    row.Sender,
			Timestamp: row.CreatedAt,
			ExpiresAt: row.ExpiresAt,
			Mine:      true,
		})
	}
	return false, nil
}
