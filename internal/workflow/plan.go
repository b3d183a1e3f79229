// Package workflow contains Temporal workflow definitions.
//
// plan.go handles interception of update_plan tool calls, which maintain the
// session's visible task plan instead of being dispatched as activities.
//
// Maps to: codex-rs/core/src/tools/spec.rs update_plan tool
package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/agentcore/orchestrator/internal/models"
)

// handleUpdatePlan intercepts an update_plan tool call, parses the new plan
// steps, replaces s.Plan, and returns a FunctionCallOutput acknowledging the
// update. Invalid arguments produce a failed output rather than an error so
// the LLM can see and correct its mistake.
func (s *SessionState) handleUpdatePlan(fc models.ConversationItem) (models.ConversationItem, error) {
	var args struct {
		Explanation string `json:"explanation,omitempty"`
		Plan        []struct {
			Step   string `json:"step"`
			Status string `json:"status"`
		} `json:"plan"`
	}
	if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
		return collabErrorOutput(fc.CallID, fmt.Sprintf("invalid update_plan arguments: %v", err)), nil
	}
	if len(args.Plan) == 0 {
		return collabErrorOutput(fc.CallID, "plan must not be empty"), nil
	}

	steps := make([]PlanStep, len(args.Plan))
	inProgress := 0
	for i, p := range args.Plan {
		if p.Step == "" {
			return collabErrorOutput(fc.CallID, fmt.Sprintf("plan step %d: step text is required", i+1)), nil
		}
		switch p.Status {
		case "pending", "in_progress", "completed":
		default:
			return collabErrorOutput(fc.CallID, fmt.Sprintf("plan step %d: invalid status %q", i+1, p.Status)), nil
		}
		if p.Status == "in_progress" {
			inProgress++
		}
		steps[i] = PlanStep{Step: p.Step, Status: p.Status}
	}
	if inProgress > 1 {
		return collabErrorOutput(fc.CallID, "at most one plan step may be in_progress"), nil
	}

	s.Plan = steps

	return collabSuccessOutput(fc.CallID, map[string]interface{}{
		"plan": steps,
	}), nil
}
