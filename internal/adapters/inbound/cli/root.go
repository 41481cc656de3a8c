package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/config"
	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/abdidvp/policyeval/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	logJSON    bool
}

func (o *globalOptions) logger(cmd *cobra.Command) *zap.Logger {
	return logging.New(logging.Options{
		Verbose: o.verbose,
		JSON:    o.logJSON,
		Writer:  cmd.ErrOrStderr(),
	})
}

// loadConfig reads the config file and applies flag overrides.
func (o *globalOptions) loadConfig(overrides config.Overrides) (domain.EvalConfig, error) {
	base, err := config.New().Load(o.configPath)
	if err != nil {
		return domain.EvalConfig{}, errors.Wrap(err, "loading config")
	}
	return config.Merge(base, overrides), nil
}

// changedInt returns v only when the named flag was given on the command
// line, so an explicit zero still overrides the config file.
func changedInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "policyeval",
		Short:         "Evaluate generated governance policies",
		Long:          "policyeval drives a policy-generation service with a corpus of instructions, checks every returned policy document against structural authoring rules and records the outcome of each case.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (defaults to "+config.FileName+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Emit logs as JSON")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newEvalCmd(opts))
	cmd.AddCommand(newHealthCmd(opts))
	cmd.AddCommand(newScoreCmd(opts))
	cmd.AddCommand(newRecoverCmd(opts))
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newMCPCmd(opts))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the CLI. The first Ctrl-C cancels the command context, which
// stops an evaluation run between cases; a second one terminates the process
// even while a case is in flight.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	context.AfterFunc(ctx, stop)

	cmd := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
	}
	return err
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}
