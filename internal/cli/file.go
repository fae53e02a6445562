package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pezhmanazar/phoenix-admin/internal/domain"
	"github.com/pezhmanazar/phoenix-admin/internal/output"
)

func NewFileCmd(deps *Dependencies) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "file <ticket-id> <path>",
		Short: "Send a file as a reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(cmd.OutOrStdout())

			attachment, err := readAttachment(args[1])
			if err != nil {
				return err
			}

			comp, err := deps.newComposer(args[0], nil, formatter)
			if err != nil {
				return err
			}
			defer comp.Close()

			comp.SetText(text)
			if err := comp.SetFile(attachment); err != nil {
				return replyError(err)
			}
			return sendReply(cmd.Context(), comp, formatter)
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Message sent along with the file")

	return cmd
}

func readAttachment(path string) (*domain.FileAttachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &domain.FileAttachment{
		Name:        filepath.Base(path),
		ContentType: contentTypeFor(path, data),
		Data:        data,
	}, nil
}

// contentTypeFor prefers the extension and falls back to sniffing.
func contentTypeFor(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
