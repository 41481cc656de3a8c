package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/genclient"
	"github.com/abdidvp/policyeval/internal/adapters/outbound/resultlog"
	"github.com/abdidvp/policyeval/internal/application"
	"github.com/abdidvp/policyeval/internal/domain"
)

// registerTools registers all policyeval MCP tools on the given server.
func registerTools(s *server.MCPServer, cfg domain.EvalConfig, logger *zap.Logger) {
	s.AddTool(
		mcplib.NewTool("policyeval_score",
			mcplib.WithDescription("Validate a policy document or /generate response against the structural authoring rules"),
			mcplib.WithString("policy",
				mcplib.Required(),
				mcplib.Description("Policy JSON: a bare document or a payload with fixed_policy or policy"),
			),
			mcplib.WithBoolean("raw", mcplib.Description("Repair raw model output before validating")),
		),
		handleScore(logger),
	)

	s.AddTool(
		mcplib.NewTool("policyeval_recover",
			mcplib.WithDescription("Repair truncated or unquoted model output into JSON"),
			mcplib.WithString("text",
				mcplib.Required(),
				mcplib.Description("Raw model output"),
			),
		),
		handleRecover(logger),
	)

	s.AddTool(
		mcplib.NewTool("policyeval_health",
			mcplib.WithDescription("Check that the generation service is reachable and has a model loaded"),
			mcplib.WithString("api", mcplib.Description("Service base URL (defaults to the configured api)")),
		),
		handleHealth(cfg, logger),
	)

	s.AddTool(
		mcplib.NewTool("policyeval_diff",
			mcplib.WithDescription("Compare two evaluation run logs and list regressions and fixes"),
			mcplib.WithString("before", mcplib.Required(), mcplib.Description("Path of the older JSONL run log")),
			mcplib.WithString("after", mcplib.Required(), mcplib.Description("Path of the newer JSONL run log")),
		),
		handleDiff(),
	)
}

func handleScore(logger *zap.Logger) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		text, err := request.RequireString("policy")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		report, err := application.NewScoreService(logger).Score(text, request.GetBool("raw", false))
		if err != nil {
			return errorResult(describe(err)), nil
		}
		return jsonResult(report)
	}
}

func handleRecover(logger *zap.Logger) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		v, err := application.NewScoreService(logger).Recover(text)
		if err != nil {
			return errorResult(describe(err)), nil
		}
		return jsonResult(v)
	}
}

func handleHealth(cfg domain.EvalConfig, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		api := request.GetString("api", cfg.API)
		if api == "" {
			return errorResult("api is required: pass it or set api in the config file"), nil
		}

		client := genclient.New(api, &http.Client{})
		status, err := application.NewHealthGate(client, cfg.HealthTimeout(), logger).Check(ctx)
		if err != nil {
			return errorResult(describe(err)), nil
		}
		return jsonResult(map[string]any{
			"base_url": client.BaseURL(),
			"healthy":  true,
			"fields":   status.Fields,
		})
	}
}

func handleDiff() server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		before, err := request.RequireString("before")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		after, err := request.RequireString("after")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		d, err := application.NewDiffService(resultlog.NewReader()).Compare(before, after)
		if err != nil {
			return errorResult(describe(err)), nil
		}
		return jsonResult(d)
	}
}

// describe renders an error with its hints for a tool result.
func describe(err error) string {
	msg := err.Error()
	for _, hint := range errors.GetAllHints(err) {
		msg += "\nhint: " + hint
	}
	return msg
}

// jsonResult marshals v as indented JSON text content.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result flagged as an error.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
