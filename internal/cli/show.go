package cli

import (
	"github.com/spf13/cobra"

	"github.com/pezhmanazar/phoenix-admin/internal/output"
)

func NewShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Print a ticket and its thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := deps.client()
			if err != nil {
				return err
			}
			ticket, err := api.Ticket(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			output.NewFormatter(cmd.OutOrStdout()).Ticket(ticket)
			return nil
		},
	}
}
