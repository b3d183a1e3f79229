// Package workflow contains Temporal workflow definitions.
//
// Corresponds to: codex-rs/core/src/codex.rs (run_turn, run_sampling_request)
package workflow

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/agentcore/orchestrator/internal/activities"
	"github.com/agentcore/orchestrator/internal/history"
	"github.com/agentcore/orchestrator/internal/instructions"
	"github.com/agentcore/orchestrator/internal/mcp"
	"github.com/agentcore/orchestrator/internal/models"
	"github.com/agentcore/orchestrator/internal/rbac"
	"github.com/agentcore/orchestrator/internal/spawn"
	"github.com/agentcore/orchestrator/internal/tools"
)

// IdleTimeout is how long the workflow waits for user input before triggering ContinueAsNew.
const IdleTimeout = 24 * time.Hour

// maxIterationsBeforeCAN is the total iteration count across all turns in a
// single workflow run before triggering ContinueAsNew to keep history bounded.
const maxIterationsBeforeCAN = 100

// maxRepeatToolCalls is the number of consecutive identical tool call batches
// before the turn is ended early to prevent tight loops.
const maxRepeatToolCalls = 3

// AgenticWorkflow is the main durable agentic loop.
//
// Maps to: codex-rs/core/src/codex.rs run_turn
func AgenticWorkflow(ctx workflow.Context, input WorkflowInput) (WorkflowResult, error) {
	state := SessionState{
		ConversationID:   input.ConversationID,
		History:          history.NewInMemoryHistory(),
		Config:           input.Config,
		IterationCount:   0,
		InstanceID:       input.InstanceID,
		ParentInstanceID: input.ParentInstanceID,
		RootInstanceID:   input.RootInstanceID,
	}
	if state.InstanceID == "" {
		state.InstanceID = input.ConversationID
	}
	if state.RootInstanceID == "" {
		state.RootInstanceID = state.InstanceID
	}

	// Derive this Instance's EffectivePermissions (§3.1/§4.G) from the
	// caller's role. A workflow started without a PrincipalRole (e.g. a
	// direct worker-side invocation outside the RBAC-aware CLI) runs with
	// owner-equivalent permissions — the same unrestricted 20-iteration
	// behavior this loop always had before RBAC existed.
	role := rbac.Role(input.Config.PrincipalRole)
	if !rbac.IsValid(role) {
		role = rbac.RoleOwner
	}
	state.EffectivePerms = spawn.ComputeEffectivePermissions(models.AgentSpec{
		AllowedTools: []string{"*"},
		MaxSteps:     20,
	}, role, nil)
	state.MaxIterations = state.EffectivePerms.MaxSteps
	ctrl := &LoopControl{}

	// Resolve the model profile before building tool specs — some profiles
	// override model parameters that downstream logic depends on.
	state.resolveProfile()

	// Build tool specs based on configuration
	state.ToolSpecs = buildToolSpecs(state.Config.Tools)

	// Resolve instructions (load worker-side AGENTS.md, merge all sources)
	// unless HarnessWorkflow already assembled them for this session.
	if state.Config.BaseInstructions == "" {
		state.resolveInstructions(ctx)
	}

	// Load exec policy rules from worker filesystem unless pre-loaded.
	if state.Config.ExecPolicyRules == "" {
		state.loadExecPolicy(ctx)
	} else {
		state.ExecPolicyRules = state.Config.ExecPolicyRules
	}

	// Initialize MCP servers, if configured, and append their tool specs.
	if err := state.initMcpServers(ctx); err != nil {
		workflow.GetLogger(ctx).Warn("MCP server initialization failed", "error", err)
	}

	// Generate initial turn ID
	turnID := state.nextTurnID()

	// Add initial TurnStarted marker
	if err := state.History.AddItem(models.ConversationItem{
		Type:   models.ItemTypeTurnStarted,
		TurnID: turnID,
	}); err != nil {
		return WorkflowResult{}, fmt.Errorf("failed to add turn started: %w", err)
	}

	// Add environment context as the first user message
	if state.Config.Cwd != "" {
		envCtx := instructions.BuildEnvironmentContext(state.Config.Cwd, "")
		if err := state.History.AddItem(models.ConversationItem{
			Type:    models.ItemTypeUserMessage,
			Content: envCtx,
			TurnID:  turnID,
		}); err != nil {
			return WorkflowResult{}, fmt.Errorf("failed to add environment context: %w", err)
		}
	}

	// Add initial user message to history
	if err := state.History.AddItem(models.ConversationItem{
		Type:    models.ItemTypeUserMessage,
		Content: input.UserMessage,
		TurnID:  turnID,
	}); err != nil {
		return WorkflowResult{}, fmt.Errorf("failed to add user message: %w", err)
	}

	// Mark that we have pending input for the first turn
	ctrl.SetPendingUserInput(turnID)

	// Register handlers and run multi-turn loop
	state.registerHandlers(ctx, ctrl)
	return state.runMultiTurnLoop(ctx, ctrl)
}

// AgenticWorkflowContinued handles ContinueAsNew.
func AgenticWorkflowContinued(ctx workflow.Context, state SessionState) (WorkflowResult, error) {
	// Restore History interface from serialized HistoryItems
	state.initHistory()
	// LoopControl is never serialized — a fresh one is built for each run.
	ctrl := &LoopControl{}
	ctrl.SetPendingUserInput(state.nextTurnID())
	// Re-register handlers after ContinueAsNew
	state.registerHandlers(ctx, ctrl)
	return state.runMultiTurnLoop(ctx, ctrl)
}

// runMultiTurnLoop is the outer loop that waits for user input between turns.
func (s *SessionState) runMultiTurnLoop(ctx workflow.Context, ctrl *LoopControl) (WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	for {
		// Wait for pending user input (first turn has it set already)
		if !ctrl.HasPendingWork() {
			ctrl.SetPhase(PhaseWaitingForInput)
			ctrl.ClearToolsInFlight()
			logger.Info("Waiting for user input or shutdown")
			timedOut, err := ctrl.WaitForInput(ctx)
			if err != nil {
				return WorkflowResult{}, fmt.Errorf("await failed: %w", err)
			}
			if timedOut {
				logger.Info("Idle timeout reached, triggering ContinueAsNew")
				return s.continueAsNew(ctx)
			}
		}

		// Check for shutdown
		if ctrl.IsShutdown() {
			logger.Info("Shutdown requested, completing workflow")
			return WorkflowResult{
				ConversationID:    s.ConversationID,
				TotalIterations:   s.IterationCount,
				TotalTokens:       s.TotalTokens,
				ToolCallsExecuted: s.ToolCallsExecuted,
				EndReason:         "shutdown",
			}, nil
		}

		// Manual compaction request with no other pending work — compact and
		// go back to waiting rather than starting a new turn.
		if ctrl.IsCompactRequested() && !ctrl.IsInterrupted() {
			if err := s.performCompaction(ctx, ctrl); err != nil {
				logger.Warn("Manual compaction failed", "error", err)
			}
			ctrl.ClearCompactRequested()
			continue
		}

		// Reset for new turn
		ctrl.StartTurn()
		s.IterationCount = 0

		// Run the agentic turn
		done, err := s.runAgenticTurn(ctx, ctrl)
		if err != nil {
			return WorkflowResult{}, err
		}

		if done {
			// ContinueAsNew was triggered
			return s.continueAsNew(ctx)
		}

		// Accumulate iterations for CAN threshold across turns.
		s.TotalIterationsForCAN += s.IterationCount
		if s.TotalIterationsForCAN >= maxIterationsBeforeCAN {
			logger.Info("Total iterations across turns reached CAN threshold",
				"total", s.TotalIterationsForCAN)
			return s.continueAsNew(ctx)
		}

		// Turn complete — add TurnComplete marker (unless interrupted, which already added it)
		if !ctrl.IsInterrupted() {
			_ = s.History.AddItem(models.ConversationItem{
				Type:   models.ItemTypeTurnComplete,
				TurnID: ctrl.CurrentTurnID(),
			})
		}

		if !s.Config.DisableSuggestions {
			s.generateSuggestion(ctx, ctrl)
		}

		ctrl.SetPhase(PhaseWaitingForInput)
		ctrl.ClearToolsInFlight()
		logger.Info("Turn complete, waiting for next input", "turn_id", ctrl.CurrentTurnID())
	}
}

// awaitWithIdleTimeout waits for condition or idle timeout.
// Returns (timedOut, error).
func awaitWithIdleTimeout(ctx workflow.Context, condition func() bool) (bool, error) {
	ok, err := workflow.AwaitWithTimeout(ctx, IdleTimeout, condition)
	if err != nil {
		return false, err
	}
	return !ok, nil // ok=false means timed out
}

// continueAsNew prepares state and triggers ContinueAsNew.
func (s *SessionState) continueAsNew(ctx workflow.Context) (WorkflowResult, error) {
	// Wait for all update handlers to finish before ContinueAsNew
	_ = workflow.Await(ctx, func() bool {
		return workflow.AllHandlersFinished(ctx)
	})

	s.syncHistoryItems()
	return WorkflowResult{}, workflow.NewContinueAsNewError(ctx, "AgenticWorkflowContinued", *s)
}

// executeToolsInParallel runs all tool activities in parallel and waits for all.
//
// Each tool gets a per-activity StartToCloseTimeout derived from:
//  1. timeout_ms argument provided by the LLM (highest priority)
//  2. DefaultTimeoutMs from the tool's ToolSpec
//  3. DefaultToolTimeoutMs constant as a fallback
//
// If sessionTaskQueue is non-empty, tool activities are dispatched to that queue
// (enabling per-session worker routing in multi-host mode). When a call's
// name has an entry in mcpToolLookup, the activity input carries McpToolRef
// so ExecuteTool routes it through the MCP handler instead of a built-in one.
//
// Maps to: codex-rs/core/src/tools/parallel.rs drain_in_flight
func executeToolsInParallel(
	ctx workflow.Context,
	functionCalls []models.ConversationItem,
	toolSpecs []tools.ToolSpec,
	cwd, sessionTaskQueue, sessionID string,
	mcpToolLookup map[string]tools.McpToolRef,
	principalRole string,
	mcpServers map[string]mcp.McpServerConfig,
) ([]activities.ToolActivityOutput, error) {
	logger := workflow.GetLogger(ctx)

	// Build a lookup map from tool name to spec for fast access.
	specByName := make(map[string]tools.ToolSpec, len(toolSpecs))
	for _, spec := range toolSpecs {
		specByName[spec.Name] = spec
	}

	// Start all tool activities in parallel using futures
	futures := make([]workflow.Future, len(functionCalls))
	for i, fc := range functionCalls {
		logger.Info("Starting tool execution", "tool", fc.Name, "call_id", fc.CallID)

		// Parse arguments from raw JSON string
		var args map[string]interface{}
		if fc.Arguments != "" {
			if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
				args = map[string]interface{}{"_raw": fc.Arguments}
			}
		}

		// Resolve per-tool timeout for StartToCloseTimeout.
		timeout := resolveToolTimeout(specByName, fc.Name, args)

		actOpts := workflow.ActivityOptions{
			StartToCloseTimeout: timeout,
			RetryPolicy: &temporal.RetryPolicy{
				InitialInterval:    time.Second,
				BackoffCoefficient: 2.0,
				MaximumInterval:    time.Minute,
				MaximumAttempts:    5,
			},
		}
		if sessionTaskQueue != "" {
			actOpts.TaskQueue = sessionTaskQueue
		}
		toolCtx := workflow.WithActivityOptions(ctx, actOpts)

		input := activities.ToolActivityInput{
			CallID:        fc.CallID,
			ToolName:      fc.Name,
			Arguments:     args,
			Cwd:           cwd,
			SessionID:     sessionID,
			PrincipalRole: principalRole,
		}
		if ref, ok := mcpToolLookup[fc.Name]; ok {
			refCopy := ref
			input.McpToolRef = &refCopy
			input.McpServers = mcpServers
		}
		futures[i] = workflow.ExecuteActivity(toolCtx, "ExecuteTool", input)
	}

	// Wait for ALL tools to complete.
	// Activity errors (ApplicationError) are converted to failed tool results
	// so the LLM can see what went wrong and decide how to proceed.
	results := make([]activities.ToolActivityOutput, len(functionCalls))
	for i, future := range futures {
		var result activities.ToolActivityOutput
		if err := future.Get(ctx, &result); err != nil {
			results[i] = toolActivityErrorToOutput(logger, functionCalls[i].CallID, functionCalls[i].Name, err)
		} else {
			results[i] = result
			logger.Info("Tool execution completed", "tool", functionCalls[i].Name)
		}
	}

	return results, nil
}

// buildToolSpecs builds tool specifications based on configuration.
//
// update_plan and request_user_input are always available (both are
// intercepted by the workflow rather than dispatched as activities). The
// collab tools (spawn_agent, send_input, wait, close_agent, resume_agent)
// are added only when "collab" is present in EnabledTools, since spawning
// child workflows is opt-in per session.
func buildToolSpecs(config models.ToolsConfig) []tools.ToolSpec {
	specs := []tools.ToolSpec{}

	if config.EnableShell {
		specs = append(specs, tools.NewShellToolSpec())
	}

	if config.EnableReadFile {
		specs = append(specs, tools.NewReadFileToolSpec())
	}

	if config.EnableWriteFile {
		specs = append(specs, tools.NewWriteFileToolSpec())
	}

	if config.EnableListDir {
		specs = append(specs, tools.NewListDirToolSpec())
	}

	if config.EnableGrepFiles {
		specs = append(specs, tools.NewGrepFilesToolSpec())
	}

	if config.EnableApplyPatch {
		specs = append(specs, tools.NewApplyPatchToolSpec())
	}

	if config.EnableRunPython {
		specs = append(specs, tools.NewRunPythonToolSpec())
	}

	if config.EnableWebSearch {
		specs = append(specs, tools.NewWebSearchToolSpec())
	}

	if config.EnableRagQuery {
		specs = append(specs, tools.NewRagQueryToolSpec())
	}

	if config.EnableThink {
		specs = append(specs, tools.NewThinkToolSpec())
	}

	if config.EnablePlanTask {
		specs = append(specs, tools.NewPlanTaskToolSpec())
	}

	// request_user_input and update_plan are always available (intercepted
	// by the workflow, never dispatched).
	specs = append(specs, tools.NewRequestUserInputToolSpec())
	specs = append(specs, tools.NewUpdatePlanToolSpec())

	for _, name := range config.EnabledTools {
		if name == "collab" {
			specs = append(specs,
				tools.NewSpawnAgentToolSpec(),
				tools.NewSendInputToolSpec(),
				tools.NewWaitToolSpec(),
				tools.NewCloseAgentToolSpec(),
				tools.NewResumeAgentToolSpec(),
			)
			break
		}
	}

	return specs
}

// toolActivityErrorToOutput converts a tool activity error into a ToolActivityOutput
// so the LLM can see what went wrong and decide how to proceed.
//
// Uses ApplicationError.Type() and .Message() for classification.
func toolActivityErrorToOutput(logger log.Logger, callID, toolName string, err error) activities.ToolActivityOutput {
	success := false
	reason := "unknown error"

	var appErr *temporal.ApplicationError
	var timeoutErr *temporal.TimeoutError
	var canceledErr *temporal.CanceledError

	switch {
	case errors.As(err, &appErr):
		logger.Warn("Tool activity failed",
			"tool", toolName,
			"error_type", appErr.Type(),
			"non_retryable", appErr.NonRetryable())
		reason = appErr.Message()

	case errors.As(err, &timeoutErr):
		logger.Warn("Tool activity timed out",
			"tool", toolName,
			"timeout_type", timeoutErr.TimeoutType())
		reason = "tool execution timed out"

	case errors.As(err, &canceledErr):
		logger.Warn("Tool activity canceled", "tool", toolName)
		reason = "tool execution was canceled"

	default:
		logger.Error("Tool activity failed with unexpected error",
			"tool", toolName, "error", err)
		reason = "activity execution failed"
	}

	return activities.ToolActivityOutput{
		CallID:  callID,
		Content: reason,
		Success: &success,
	}
}

// resolveToolTimeout determines the StartToCloseTimeout for a tool activity.
//
// Priority:
//  1. timeout_ms argument from LLM (per-invocation override)
//  2. DefaultTimeoutMs from the tool's ToolSpec
//  3. DefaultToolTimeoutMs constant as a global fallback
//
// Maps to: codex-rs/core/src/exec.rs timeout resolution for tool commands
func resolveToolTimeout(specByName map[string]tools.ToolSpec, toolName string, args map[string]interface{}) time.Duration {
	// 1. Check for LLM-provided timeout_ms in arguments.
	if args != nil {
		if v, ok := args["timeout_ms"]; ok {
			if ms, ok := toInt64(v); ok && ms > 0 {
				return time.Duration(ms) * time.Millisecond
			}
		}
	}

	// 2. Use the tool spec's default timeout.
	if spec, ok := specByName[toolName]; ok && spec.DefaultTimeoutMs > 0 {
		return time.Duration(spec.DefaultTimeoutMs) * time.Millisecond
	}

	// 3. Global fallback.
	return time.Duration(tools.DefaultToolTimeoutMs) * time.Millisecond
}

// truncate returns s truncated to n bytes with "..." appended if it was longer.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// toolCallsKey produces a deterministic hash for a batch of tool calls
// based on tool names and arguments, used for repeat detection.
func toolCallsKey(calls []models.ConversationItem) string {
	// Build a sorted list of "name:args" strings for deterministic ordering.
	parts := make([]string, len(calls))
	for i, c := range calls {
		parts[i] = c.Name + ":" + c.Arguments
	}
	sort.Strings(parts)
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// toInt64 converts a JSON-decoded number (float64) to int64.
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
