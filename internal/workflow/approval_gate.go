// Package workflow contains Temporal workflow definitions.
//
// approval_gate.go classifies tool calls that need user approval before
// execution and applies the user's approve/deny decision.
//
// Maps to: codex-rs/core/src/tools/approval.rs
package workflow

import (
	"encoding/json"

	"github.com/agentcore/orchestrator/internal/execpolicy"
	"github.com/agentcore/orchestrator/internal/models"
	"github.com/agentcore/orchestrator/internal/tools"
)

// ApprovalGate classifies tool calls by approval requirement and applies the
// user's decision once gathered. One gate is constructed per turn from the
// session's approval mode and exec policy rules.
type ApprovalGate struct {
	mode      models.ApprovalMode
	policyMgr *execpolicy.ExecPolicyManager
}

// NewApprovalGate builds a gate from the session's approval mode and
// serialized exec policy rule source (may be empty, yielding no rules).
func NewApprovalGate(mode models.ApprovalMode, execPolicyRules string) *ApprovalGate {
	policyMgr, err := execpolicy.LoadExecPolicyFromSource(execPolicyRules)
	if err != nil {
		policyMgr = nil
	}
	return &ApprovalGate{mode: mode, policyMgr: policyMgr}
}

// Classify splits function calls into those needing approval and those that
// are outright forbidden (returned as FunctionCallOutput items denying them).
// Calls needing neither are simply absent from both return values.
func (g *ApprovalGate) Classify(calls []models.ConversationItem) (needsApproval []PendingApproval, forbidden []models.ConversationItem) {
	for _, fc := range calls {
		requirement, reason := g.evaluateToolApproval(fc.Name, fc.Arguments)
		switch requirement {
		case tools.ApprovalForbidden:
			falseVal := false
			forbidden = append(forbidden, models.ConversationItem{
				Type:   models.ItemTypeFunctionCallOutput,
				CallID: fc.CallID,
				Output: &models.FunctionCallOutputPayload{
					Content: "This tool call is forbidden by exec policy: " + reason,
					Success: &falseVal,
				},
			})
		case tools.ApprovalNeeded:
			needsApproval = append(needsApproval, PendingApproval{
				CallID:    fc.CallID,
				ToolName:  fc.Name,
				Arguments: fc.Arguments,
				Reason:    reason,
			})
		}
	}
	return needsApproval, forbidden
}

// evaluateToolApproval determines the approval requirement for a single tool
// call given its name and raw JSON arguments.
func (g *ApprovalGate) evaluateToolApproval(toolName, arguments string) (tools.ExecApprovalRequirement, string) {
	switch toolName {
	case "read_file", "list_dir", "grep_files", "request_user_input",
		"web_search", "rag_query", "think", "plan_task":
		// Read-only/no-op tools never require approval (§4.D: "think and
		// plan_task never require approval").
		return tools.ApprovalSkip, ""
	case "shell":
		return g.evaluateShellApproval(arguments)
	case "run_python":
		// safety_default is `dangerous` (§4.B): always requires approval
		// regardless of ApprovalMode, unlike write_file/apply_patch below.
		return tools.ApprovalNeeded, "runs arbitrary code (dangerous)"
	case "write_file", "apply_patch":
		if g.mode == models.ApprovalNever {
			return tools.ApprovalSkip, ""
		}
		return tools.ApprovalNeeded, "modifies the filesystem"
	default:
		if g.mode == models.ApprovalNever {
			return tools.ApprovalSkip, ""
		}
		return tools.ApprovalNeeded, "tool call requires confirmation"
	}
}

// evaluateShellApproval classifies a shell tool call using the exec policy
// manager when available, falling back to a built-in heuristic otherwise.
func (g *ApprovalGate) evaluateShellApproval(arguments string) (tools.ExecApprovalRequirement, string) {
	var args struct {
		Command string `json:"command"`
	}
	_ = json.Unmarshal([]byte(arguments), &args)

	if g.policyMgr != nil {
		eval := g.policyMgr.GetEvaluation([]string{"bash", "-c", args.Command}, string(g.mode))
		return decisionToApprovalReq(eval.Decision), eval.Justification
	}

	// No policy loaded — fall back to the built-in heuristic manager.
	fallbackMgr := execpolicy.NewExecPolicyManager(execpolicy.NewPolicy())
	requirement := fallbackMgr.EvaluateShellCommand(args.Command, string(g.mode))
	return requirement, "heuristic safety check"
}

// decisionToApprovalReq maps an exec policy decision to the approval
// requirement it implies.
func decisionToApprovalReq(d execpolicy.Decision) tools.ExecApprovalRequirement {
	switch d {
	case execpolicy.DecisionAllow:
		return tools.ApprovalSkip
	case execpolicy.DecisionForbidden:
		return tools.ApprovalForbidden
	default: // DecisionPrompt
		return tools.ApprovalNeeded
	}
}

// ApplyDecision filters calls by the user's approve/deny response, returning
// the approved calls and FunctionCallOutput items for the denied ones.
func (g *ApprovalGate) ApplyDecision(calls []models.ConversationItem, resp *ApprovalResponse) (approved []models.ConversationItem, denied []models.ConversationItem) {
	if resp == nil {
		return nil, nil
	}

	deniedSet := make(map[string]bool, len(resp.Denied))
	for _, id := range resp.Denied {
		deniedSet[id] = true
	}

	for _, fc := range calls {
		if deniedSet[fc.CallID] {
			falseVal := false
			denied = append(denied, models.ConversationItem{
				Type:   models.ItemTypeFunctionCallOutput,
				CallID: fc.CallID,
				Output: &models.FunctionCallOutputPayload{
					Content: "User denied execution of this tool call.",
					Success: &falseVal,
				},
			})
			continue
		}
		approved = append(approved, fc)
	}

	return approved, denied
}
