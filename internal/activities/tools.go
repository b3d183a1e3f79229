package activities

import (
	"context"
	"errors"

	"github.com/agentcore/orchestrator/internal/mcp"
	"github.com/agentcore/orchestrator/internal/models"
	"github.com/agentcore/orchestrator/internal/tools"
)

// ToolActivityInput is the input for tool execution.
//
// Maps to: codex-rs/core/src/tools/context.rs ToolInvocation fields
type ToolActivityInput struct {
	CallID    string                 `json:"call_id"`
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
	Cwd       string                 `json:"cwd,omitempty"`

	// SessionID identifies the owning workflow session, used for MCP
	// connection lookup when McpToolRef is set.
	SessionID string `json:"session_id,omitempty"`

	// McpToolRef, if set, routes this call to an MCP server tool instead of
	// a built-in handler.
	McpToolRef *tools.McpToolRef `json:"mcp_tool_ref,omitempty"`

	// PrincipalRole carries the calling principal's rbac.Role (as a string,
	// to avoid this package depending on internal/rbac) through to the mcp
	// handler's auto-reconnect path, which must re-apply §4.C visibility
	// filtering if the worker restarted and the session's MCP connections
	// need to be re-established from McpServers.
	PrincipalRole string `json:"principal_role,omitempty"`

	// McpServers carries the session's MCP server configs so the mcp
	// handler can reconnect without a round-trip back to the workflow.
	McpServers map[string]mcp.McpServerConfig `json:"mcp_servers,omitempty"`
}

// ToolActivityOutput is the output from tool execution.
// Only returned on successful activity completion. Infrastructure errors
// are returned as temporal.ApplicationError (retryable or non-retryable).
//
// Maps to: codex-rs/core/src/tools/router.rs ToolOutput + call_id
type ToolActivityOutput struct {
	CallID  string `json:"call_id"`
	Content string `json:"content,omitempty"`
	Success *bool  `json:"success,omitempty"`
}

// ToolActivities contains tool-related activities.
type ToolActivities struct {
	registry *tools.ToolRegistry
}

// NewToolActivities creates a new ToolActivities instance.
func NewToolActivities(registry *tools.ToolRegistry) *ToolActivities {
	return &ToolActivities{registry: registry}
}

// ExecuteTool executes a single tool call.
//
// Error handling:
//   - Tool not found → non-retryable ApplicationError (ToolNotFound)
//   - Handler validation error → non-retryable ApplicationError (ToolValidation)
//   - Handler timeout → non-retryable ApplicationError (ToolTimeout)
//   - Tool runs but fails (e.g., command exits non-zero) → successful return with Success=false
//   - Tool runs successfully → successful return with Success=true
//
// Maps to: codex-rs/core/src/tools/router.rs ToolRouter.dispatch()
func (a *ToolActivities) ExecuteTool(ctx context.Context, input ToolActivityInput) (ToolActivityOutput, error) {
	lookupName := input.ToolName
	if input.McpToolRef != nil {
		// MCP tool calls all dispatch through the single "mcp" handler, which
		// resolves the actual server/tool from McpToolRef.
		lookupName = "mcp"
	}

	handler, err := a.registry.GetHandler(lookupName)
	if err != nil {
		return ToolActivityOutput{}, models.NewToolNotFoundError(input.ToolName)
	}

	invocation := &tools.ToolInvocation{
		CallID:        input.CallID,
		ToolName:      input.ToolName,
		Arguments:     input.Arguments,
		Cwd:           input.Cwd,
		SessionID:     input.SessionID,
		McpToolRef:    input.McpToolRef,
		PrincipalRole: input.PrincipalRole,
	}
	if input.McpToolRef != nil && input.McpServers != nil {
		invocation.McpServers = input.McpServers
	}

	output, err := handler.Handle(ctx, invocation)
	if err != nil {
		return ToolActivityOutput{}, classifyHandlerError(input.ToolName, err)
	}

	return ToolActivityOutput{
		CallID:  input.CallID,
		Content: output.Content,
		Success: output.Success,
	}, nil
}

// classifyHandlerError converts a handler error into the appropriate
// activity error based on the error context.
//
// An error wrapping tools.TransientError is returned unchanged, so the
// activity's retry policy retries it. An error wrapping
// context.DeadlineExceeded becomes a non-retryable tool timeout error, and
// every other error becomes a non-retryable tool validation error.
func classifyHandlerError(toolName string, err error) error {
	if tools.IsTransientError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewToolTimeoutError(toolName, err)
	}

	// Default: treat handler errors as validation/execution errors (non-retryable).
	// The same invalid input will produce the same error on retry.
	return models.NewToolValidationError(toolName, err)
}
