package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "github.com/abdidvp/policyeval/internal/adapters/inbound/mcp"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/config"
)

func newMCPCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the policyeval MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(opts))
	return cmd
}

func newMCPServeCmd(opts *globalOptions) *cobra.Command {
	var api string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start policyeval MCP server (stdio)",
		Long:  "Start the policyeval MCP server using stdio transport. This lets AI assistants validate and repair generated policies and check the generation service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(config.Overrides{API: api})
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs stay on stderr.
			s := mcpadapter.NewPolicyEvalMCPServer(cfg, version, opts.logger(cmd))
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&api, "api", "", "Default generation service URL for the health tool")

	return cmd
}
