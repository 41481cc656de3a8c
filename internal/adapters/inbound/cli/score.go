package cli

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/tui"
	"github.com/abdidvp/policyeval/internal/application"
)

func newScoreCmd(opts *globalOptions) *cobra.Command {
	var (
		jsonOutput bool
		raw        bool
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "score <file|->",
		Short: "Validate a saved policy response or document",
		Long: "Check a policy document against the structural authoring rules. The input may be a " +
			"/generate response payload (fixed_policy or policy key) or a bare policy document. " +
			"Use --raw for unrepaired model output.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, source, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			report, err := application.NewScoreService(opts.logger(cmd)).Score(text, raw)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return errors.Wrap(err, "marshaling report")
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(source, report))
			}

			if strict && !report.Passed {
				return errors.Newf("%s failed validation with %d issues", source, len(report.Issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "Repair raw model output before validating")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the document fails validation")

	return cmd
}
