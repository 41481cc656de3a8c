package cli

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/resultlog"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/tui"
	"github.com/abdidvp/policyeval/internal/application"
	"github.com/abdidvp/policyeval/internal/domain"
)

func newDiffCmd() *cobra.Command {
	var (
		jsonOutput bool
		ciMode     bool
	)

	cmd := &cobra.Command{
		Use:   "diff <before.jsonl> <after.jsonl>",
		Short: "Compare two evaluation runs",
		Long:  "Pair the outcome records of two runs by instruction and report regressions, fixes and corpus changes.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := application.NewDiffService(resultlog.NewReader()).Compare(args[0], args[1])
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(d, "", "  ")
				if err != nil {
					return errors.Wrap(err, "marshaling diff")
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderDiff(d))
			}

			if n := d.Count(domain.ChangeRegressed); ciMode && n > 0 {
				return errors.Newf("%d cases regressed", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the diff as JSON")
	cmd.Flags().BoolVar(&ciMode, "ci", false, "Exit non-zero when any case regressed")

	return cmd
}
