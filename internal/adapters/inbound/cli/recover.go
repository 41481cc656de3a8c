package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/abdidvp/policyeval/internal/application"
)

func newRecoverCmd(opts *globalOptions) *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "recover <file|->",
		Short: "Repair raw model output into JSON",
		Long:  "Close truncated brackets and quote bare keys in raw model output, then print the decoded JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			v, err := application.NewScoreService(opts.logger(cmd)).Recover(text)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(v)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Print on a single line")

	return cmd
}

// readInput reads a file argument, or stdin when it is "-".
func readInput(cmd *cobra.Command, arg string) (text, source string, err error) {
	var data []byte
	if arg == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		source = "stdin"
	} else {
		data, err = os.ReadFile(arg)
		source = arg
	}
	if err != nil {
		return "", "", errors.Wrapf(err, "reading %s", source)
	}
	return string(data), source, nil
}
