package cli

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/config"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/genclient"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/tui"
	"github.com/abdidvp/policyeval/internal/application"
)

func newHealthCmd(opts *globalOptions) *cobra.Command {
	var (
		o             config.Overrides
		healthTimeout int
		jsonOutput    bool
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the generation service is up and has a model loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.HealthTimeoutSeconds = changedInt(cmd, "health-timeout", healthTimeout)
			cfg, err := opts.loadConfig(o)
			if err != nil {
				return err
			}
			if err := cfg.ValidateForRun(); err != nil {
				return err
			}

			client := genclient.New(cfg.API, &http.Client{})
			status, err := application.NewHealthGate(client, cfg.HealthTimeout(), opts.logger(cmd)).Check(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status.Fields)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API: %s\n", client.BaseURL())
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHealth(status))
			return nil
		},
	}

	cmd.Flags().StringVar(&o.API, "api", "", "Base URL of the generation service")
	cmd.Flags().IntVar(&healthTimeout, "health-timeout", 0, "Health check timeout in seconds (default 10)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw health response as JSON")

	return cmd
}
