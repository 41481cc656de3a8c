package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/abdidvp/policyeval/internal/domain"
	"github.com/abdidvp/policyeval/internal/logging"
)

// NewPolicyEvalMCPServer creates an MCP server exposing validation,
// recovery and health checks as tools. cfg supplies the default service URL
// and the instruction corpus.
func NewPolicyEvalMCPServer(cfg domain.EvalConfig, version string, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"policyeval",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	logger = logging.OrNop(logger)
	registerTools(s, cfg, logger)
	registerResources(s, cfg, logger)

	return s
}
