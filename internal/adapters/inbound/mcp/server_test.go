package mcp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpadapter "github.com/abdidvp/policyeval/internal/adapters/inbound/mcp"
	"github.com/abdidvp/policyeval/internal/domain"
)

func newServer(cfg domain.EvalConfig) *server.MCPServer {
	return mcpadapter.NewPolicyEvalMCPServer(cfg, "test", nil)
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	tool, ok := s.ListTools()[name]
	require.True(t, ok, "tool %q should be registered", name)

	req := mcplib.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcplib.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPServerHasTools(t *testing.T) {
	tools := newServer(domain.DefaultConfig()).ListTools()
	require.NotNil(t, tools)

	expectedTools := []string{
		"policyeval_score",
		"policyeval_recover",
		"policyeval_health",
		"policyeval_diff",
	}
	for _, name := range expectedTools {
		_, exists := tools[name]
		assert.True(t, exists, "tool %q should be registered", name)
	}
	assert.Len(t, tools, len(expectedTools))
}

func TestScoreTool_ReportsIssues(t *testing.T) {
	s := newServer(domain.DefaultConfig())
	res := callTool(t, s, "policyeval_score", map[string]any{
		"policy": `{"fixed_policy": {"properties": {"policyRule": {"if": {}}}}}`,
	})
	require.False(t, res.IsError)

	var report domain.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &report))
	assert.False(t, report.Passed)
	assert.Equal(t, []domain.IssueCode{
		domain.IssueEmptyIf,
		domain.IssueMissingEffectParameter,
		domain.IssueThenEffectNotParameterized,
	}, report.Issues)
}

func TestScoreTool_RawRecovers(t *testing.T) {
	s := newServer(domain.DefaultConfig())
	res := callTool(t, s, "policyeval_score", map[string]any{
		"policy": `properties: {foo: 1`,
		"raw":    true,
	})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "empty_if")
	assert.NotContains(t, resultText(t, res), "missing_properties")
}

func TestScoreTool_InvalidJSON(t *testing.T) {
	res := callTool(t, newServer(domain.DefaultConfig()), "policyeval_score", map[string]any{"policy": "not json"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "hint:")
}

func TestScoreTool_MissingArgument(t *testing.T) {
	res := callTool(t, newServer(domain.DefaultConfig()), "policyeval_score", map[string]any{})
	assert.True(t, res.IsError)
}

func TestRecoverTool(t *testing.T) {
	res := callTool(t, newServer(domain.DefaultConfig()), "policyeval_recover", map[string]any{"text": `properties: {foo: 1`})
	require.False(t, res.IsError)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &v))
	assert.Equal(t, map[string]any{"foo": float64(1)}, v["properties"])
}

func TestHealthTool_UsesConfiguredAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"model_loaded": true, "device": "cuda"}`))
	}))
	defer srv.Close()

	cfg := domain.DefaultConfig()
	cfg.API = srv.URL + "/generate"

	res := callTool(t, newServer(cfg), "policyeval_health", map[string]any{})
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), `"healthy": true`)
	assert.Contains(t, resultText(t, res), "cuda")
}

func TestHealthTool_ModelNotLoaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"model_loaded": false}`))
	}))
	defer srv.Close()

	res := callTool(t, newServer(domain.DefaultConfig()), "policyeval_health", map[string]any{"api": srv.URL})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "model not loaded")
}

func TestHealthTool_NoAPI(t *testing.T) {
	res := callTool(t, newServer(domain.DefaultConfig()), "policyeval_health", map[string]any{})
	assert.True(t, res.IsError)
}
