package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/abdidvp/policyeval/internal/adapters/outbound/history"
	"github.com/abdidvp/policyeval/internal/application"
	"github.com/abdidvp/policyeval/internal/domain"
)

const (
	corpusURI  = "policyeval://corpus"
	historyURI = "policyeval://history"
)

// registerResources registers all policyeval MCP resources on the given server.
func registerResources(s *server.MCPServer, cfg domain.EvalConfig, logger *zap.Logger) {
	s.AddResource(
		mcplib.NewResource(
			corpusURI,
			"Instruction Corpus",
			mcplib.WithResourceDescription("Instructions an evaluation run sends to the generation service"),
			mcplib.WithMIMEType("application/json"),
		),
		handleCorpusResource(cfg),
	)

	s.AddResource(
		mcplib.NewResource(
			historyURI,
			"Run History",
			mcplib.WithResourceDescription("Summaries of previous evaluation runs in the working directory"),
			mcplib.WithMIMEType("application/json"),
		),
		handleHistoryResource(logger),
	)
}

func handleCorpusResource(cfg domain.EvalConfig) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		instructions := cfg.WithDefaults().Instructions
		return jsonContents(corpusURI, instructions)
	}
}

func handleHistoryResource(logger *zap.Logger) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		entries, err := application.NewHistoryService(history.New(), nil, logger).List(".")
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []domain.RunEntry{}
		}
		return jsonContents(historyURI, entries)
	}
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
