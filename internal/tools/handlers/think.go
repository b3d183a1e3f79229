package handlers

import (
	"context"

	"github.com/agentcore/orchestrator/internal/tools"
)

// ThinkTool implements the think built-in (§4.B: "think(thought) (no-op
// record)"). It performs no side effect: the thought is echoed back as the
// tool result purely so it appears in the conversation's function_call_output
// trail, giving the model a scratch space without touching the environment.
//
// Maps to: §4.D "Exceptions. Tools think and plan_task never require
// approval" — enforced by the approval gate's safety classification, not
// this handler.
type ThinkTool struct{}

// NewThinkTool creates a new think handler.
func NewThinkTool() *ThinkTool {
	return &ThinkTool{}
}

func (t *ThinkTool) Name() string {
	return "think"
}

func (t *ThinkTool) Kind() tools.ToolKind {
	return tools.ToolKindFunction
}

// IsMutating is always false: think never touches the environment.
func (t *ThinkTool) IsMutating(_ *tools.ToolInvocation) bool {
	return false
}

// Handle records the thought by returning it verbatim.
func (t *ThinkTool) Handle(_ context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	thought, ok := invocation.Arguments["thought"].(string)
	if !ok {
		return nil, tools.NewValidationError("thought must be a string")
	}
	success := true
	return &tools.ToolOutput{Content: thought, Success: &success}, nil
}
