package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentcore/orchestrator/internal/tools"
)

// PlanTaskTool implements the plan_task built-in (§4.B: "plan_task(goal,
// steps) (structured record)"). Distinct from the collab-layer update_plan
// tool (internal/workflow/plan.go): that one mutates the Conversation's
// in-flight plan state for CLI display; this one is a Tool Registry
// built-in with no workflow-side state of its own — it just records the
// plan structure in the function_call_output trail as normalized JSON, the
// same no-op-record contract think.go follows.
type PlanTaskTool struct{}

// NewPlanTaskTool creates a new plan_task handler.
func NewPlanTaskTool() *PlanTaskTool {
	return &PlanTaskTool{}
}

func (t *PlanTaskTool) Name() string {
	return "plan_task"
}

func (t *PlanTaskTool) Kind() tools.ToolKind {
	return tools.ToolKindFunction
}

// IsMutating is always false: plan_task never touches the environment.
func (t *PlanTaskTool) IsMutating(_ *tools.ToolInvocation) bool {
	return false
}

type recordedPlan struct {
	Goal  string   `json:"goal"`
	Steps []string `json:"steps"`
}

// Handle validates and normalizes the (goal, steps) pair, returning it as
// canonical JSON.
func (t *PlanTaskTool) Handle(_ context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	goal, ok := invocation.Arguments["goal"].(string)
	if !ok || goal == "" {
		return nil, tools.NewValidationError("goal must be a non-empty string")
	}

	rawSteps, ok := invocation.Arguments["steps"].([]interface{})
	if !ok {
		return nil, tools.NewValidationError("steps must be an array of strings")
	}
	steps := make([]string, 0, len(rawSteps))
	for _, s := range rawSteps {
		str, ok := s.(string)
		if !ok {
			return nil, tools.NewValidationError("steps must be an array of strings")
		}
		steps = append(steps, str)
	}

	data, err := json.Marshal(recordedPlan{Goal: goal, Steps: steps})
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}

	success := true
	return &tools.ToolOutput{Content: string(data), Success: &success}, nil
}
