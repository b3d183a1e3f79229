package handlers

import (
	"context"
	"fmt"

	"github.com/agentcore/orchestrator/internal/mcp"
	"github.com/agentcore/orchestrator/internal/tools"
)

// RagServerName is the well-known MCP server name the rag_query built-in
// delegates to. Operators register it as a Builtin server (mcp.McpServerConfig
// {Builtin: true}) so it stays visible at McpVisibilityBuiltinOnly (§4.C).
const RagServerName = "rag"

// RagQueryTool implements the rag_query built-in (§4.B: "rag_query(query,
// top_k) (delegated)"). Unlike the other built-ins it has no local
// implementation at all — it is a thin forward onto whatever MCP server is
// registered as RagServerName's "rag_query" tool, the same dispatch path
// MCPHandler uses for mcp_* tool calls, just addressed by a stable built-in
// name instead of a mangled mcp_<server>_<tool> one.
type RagQueryTool struct {
	store *mcp.McpStore
}

// NewRagQueryTool creates a new rag_query handler backed by the shared
// McpStore (the same store MCPHandler and the session-init activity use).
func NewRagQueryTool(store *mcp.McpStore) *RagQueryTool {
	return &RagQueryTool{store: store}
}

func (t *RagQueryTool) Name() string {
	return "rag_query"
}

func (t *RagQueryTool) Kind() tools.ToolKind {
	return tools.ToolKindFunction
}

// IsMutating is false: retrieval against a vector index has no side effect.
func (t *RagQueryTool) IsMutating(_ *tools.ToolInvocation) bool {
	return false
}

// Handle forwards to the rag MCP server's "rag_query" tool.
func (t *RagQueryTool) Handle(ctx context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	if _, ok := invocation.Arguments["query"].(string); !ok {
		return nil, tools.NewValidationError("query must be a string")
	}

	mgr := t.store.Get(invocation.SessionID)
	if mgr == nil {
		success := false
		return &tools.ToolOutput{
			Content: "rag_query unavailable: no MCP session initialized",
			Success: &success,
		}, nil
	}

	result, err := mgr.CallTool(ctx, RagServerName, "rag_query", invocation.Arguments)
	if err != nil {
		success := false
		return &tools.ToolOutput{Content: fmt.Sprintf("rag_query delegation failed: %v", err), Success: &success}, nil
	}

	return convertCallToolResult(result), nil
}
