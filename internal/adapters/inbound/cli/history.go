package cli

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/gitinfo"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/history"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/tui"
	"github.com/abdidvp/policyeval/internal/application"
	"github.com/abdidvp/policyeval/internal/domain"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history [dir]",
		Short: "List previous evaluation runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			entries, err := application.NewHistoryService(history.New(), gitinfo.New(), opts.logger(cmd)).List(dir)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			if jsonOutput {
				if entries == nil {
					entries = []domain.RunEntry{}
				}
				data, err := json.MarshalIndent(entries, "", "  ")
				if err != nil {
					return errors.Wrap(err, "marshaling history")
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output history as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the most recent N runs")

	return cmd
}
