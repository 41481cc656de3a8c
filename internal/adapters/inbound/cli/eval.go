package cli

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/config"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/genclient"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/gitinfo"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/history"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/resultlog"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/tui"
	"github.com/abdidvp/policyeval/internal/application"
	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/abdidvp/policyeval/internal/logging"
)

func newEvalCmd(opts *globalOptions) *cobra.Command {
	var (
		o             config.Overrides
		timeout       int
		healthTimeout int
		rateLimit     int
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the instruction corpus against a generation service",
		Long: "Check the service health, then send every instruction to /generate one at a time, " +
			"validate each returned policy and append one JSON line per case to the output file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.TimeoutSeconds = changedInt(cmd, "timeout", timeout)
			o.HealthTimeoutSeconds = changedInt(cmd, "health-timeout", healthTimeout)
			o.RateLimitPerMinute = changedInt(cmd, "rate-limit", rateLimit)
			cfg, err := opts.loadConfig(o)
			if err != nil {
				return err
			}
			if err := cfg.ValidateForRun(); err != nil {
				return err
			}

			logger := opts.logger(cmd)
			defer func() { _ = logger.Sync() }()

			out := cmd.OutOrStdout()
			client := genclient.New(cfg.API, &http.Client{})
			logger = logger.With(zap.String(logging.FieldBaseURL, client.BaseURL()))

			fmt.Fprintf(out, "API: %s\n", client.BaseURL())
			fmt.Fprintln(out, "Checking health...")
			status, err := application.NewHealthGate(client, cfg.HealthTimeout(), logger).Check(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, tui.RenderHealth(status))

			writer, err := resultlog.Create(cfg.Output)
			if err != nil {
				return errors.Wrap(err, "opening output")
			}

			svc := application.NewEvalService(client, writer, application.EvalOptions{
				Timeout:            cfg.Timeout(),
				RateLimitPerMinute: cfg.RateLimitPerMinute,
				Progress:           tui.NewProgress(out),
				Logger:             logger,
			})
			summary, runErr := svc.Run(cmd.Context(), cfg.Instructions)
			if err := writer.Close(); err != nil && runErr == nil {
				runErr = errors.Wrap(err, "closing output")
			}
			if runErr != nil {
				return runErr
			}

			summary.BaseURL = client.BaseURL()
			summary.OutputPath = cfg.Output
			fmt.Fprint(out, tui.RenderRunSummary(summary))

			if cfg.HistoryEnabled() {
				hist := application.NewHistoryService(history.New(), gitinfo.New(), logger)
				if _, err := hist.Record(".", summary); err != nil {
					logger.Warn("run history not saved", zap.Error(err))
				}
			}

			if summary.Cancelled {
				return errors.Newf("run cancelled after %d of %d cases", summary.Total, len(cfg.Instructions))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&o.API, "api", "", "Base URL of the generation service")
	cmd.Flags().StringVar(&o.Output, "out", "", "Output JSONL path (default "+domain.DefaultOutputPath+")")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Per-case request timeout in seconds (default 180)")
	cmd.Flags().IntVar(&healthTimeout, "health-timeout", 0, "Health check timeout in seconds (default 10)")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "Maximum generation requests per minute (0 = unlimited, overrides the config file)")
	cmd.Flags().StringArrayVar(&o.Instructions, "test", nil, "Instruction to evaluate; repeat to build the corpus")
	cmd.Flags().BoolVar(&o.NoHistory, "no-history", false, "Do not record this run in the history")

	return cmd
}
