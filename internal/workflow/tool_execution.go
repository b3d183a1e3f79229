// Package workflow contains Temporal workflow definitions.
//
// tool_execution.go exposes a thin ToolExecutor wrapper around
// executeToolsInParallel (defined in agentic.go) for callers that hold a
// fixed set of tool specs across an instance's lifetime.
package workflow

import (
	"go.temporal.io/sdk/workflow"

	"github.com/agentcore/orchestrator/internal/activities"
	"github.com/agentcore/orchestrator/internal/mcp"
	"github.com/agentcore/orchestrator/internal/models"
	"github.com/agentcore/orchestrator/internal/tools"
)

// ToolExecutor handles parallel tool activity dispatch.
type ToolExecutor struct {
	toolSpecs        []tools.ToolSpec
	cwd              string
	sessionTaskQueue string
	sessionID        string
	mcpToolLookup    map[string]tools.McpToolRef
	principalRole    string
	mcpServers       map[string]mcp.McpServerConfig
}

// NewToolExecutor creates a ToolExecutor with the given specs, working
// directory, task queue, owning session ID, MCP tool routing table, the
// calling principal's role, and the session's configured MCP servers (both
// threaded through to ExecuteTool for §4.C visibility re-filtering on
// auto-reconnect).
func NewToolExecutor(specs []tools.ToolSpec, cwd, taskQueue, sessionID string, mcpToolLookup map[string]tools.McpToolRef, principalRole string, mcpServers map[string]mcp.McpServerConfig) *ToolExecutor {
	return &ToolExecutor{
		toolSpecs:        specs,
		cwd:              cwd,
		sessionTaskQueue: taskQueue,
		sessionID:        sessionID,
		mcpToolLookup:    mcpToolLookup,
		principalRole:    principalRole,
		mcpServers:       mcpServers,
	}
}

// ExecuteParallel runs all tool activities in parallel and waits for all.
func (e *ToolExecutor) ExecuteParallel(ctx workflow.Context, calls []models.ConversationItem) ([]activities.ToolActivityOutput, error) {
	return executeToolsInParallel(ctx, calls, e.toolSpecs, e.cwd, e.sessionTaskQueue, e.sessionID, e.mcpToolLookup, e.principalRole, e.mcpServers)
}
