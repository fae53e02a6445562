package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pezhmanazar/phoenix-admin/internal/output"
)

func NewTextCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text <ticket-id> [message...]",
		Short: "Send a text reply",
		Long:  "Send a text reply. With no message, or with \"-\", the text is read from stdin.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(cmd.OutOrStdout())

			text := strings.Join(args[1:], " ")
			if text == "-" || (text == "" && !stdinIsTerminal(cmd.InOrStdin())) {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = string(data)
			}

			comp, err := deps.newComposer(args[0], nil, formatter)
			if err != nil {
				return err
			}
			defer comp.Close()

			comp.SetText(text)
			return sendReply(cmd.Context(), comp, formatter)
		},
	}
	return cmd
}

func stdinIsTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
