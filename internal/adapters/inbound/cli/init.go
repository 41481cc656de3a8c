package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/config"
	"github.com/abdidvp/policyeval/internal/domain"
)

func newInitCmd() *cobra.Command {
	var (
		api   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Generate a " + config.FileName + " configuration file",
		Long:  "Create a " + config.FileName + " holding the default corpus and timeouts, ready to edit.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return errors.Wrap(err, "resolving path")
			}

			dest := filepath.Join(absPath, config.FileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return errors.WithHint(
						errors.Newf("%s already exists", config.FileName),
						"use --force to overwrite",
					)
				}
			}

			cfg := domain.DefaultConfig()
			cfg.API = api
			if err := cfg.Validate(); err != nil {
				return err
			}

			content, err := generateConfig(cfg)
			if err != nil {
				return err
			}

			if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
				return errors.Wrap(err, "writing config")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.FileName)
			return nil
		},
	}

	cmd.Flags().StringVar(&api, "api", "", "Generation service URL to store in the file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing "+config.FileName)

	return cmd
}

func generateConfig(cfg domain.EvalConfig) (string, error) {
	corpus, err := yaml.Marshal(map[string][]string{"instructions": cfg.Instructions})
	if err != nil {
		return "", errors.Wrap(err, "marshaling instructions")
	}

	apiLine := "# api: https://<your-tunnel-host>\n"
	if cfg.API != "" {
		apiLine = fmt.Sprintf("api: %s\n", cfg.API)
	}

	result := "# policyeval configuration\n\n" + apiLine +
		fmt.Sprintf("output: %s\n", cfg.Output) +
		fmt.Sprintf("timeout_seconds: %d\n", cfg.TimeoutSeconds) +
		fmt.Sprintf("health_timeout_seconds: %d\n", cfg.HealthTimeoutSeconds) +
		`
# Space out generation requests (0 = unlimited).
# rate_limit_per_minute: 6

# Record each run under .policyeval/history.
# history: false

` + string(corpus)

	return result, nil
}
