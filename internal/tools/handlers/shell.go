// Package handlers contains built-in tool handler implementations.
//
// Corresponds to: codex-rs/core/src/tools/handlers/
package handlers

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/agentcore/orchestrator/internal/commandsafety"
	execpkg "github.com/agentcore/orchestrator/internal/exec"
	"github.com/agentcore/orchestrator/internal/execenv"
	"github.com/agentcore/orchestrator/internal/sandbox"
	"github.com/agentcore/orchestrator/internal/tools"
)

// ShellTool implements the run_command built-in: execute a command line
// with CWD pinned to the sandbox root and a reduced environment.
//
// Maps to: codex-rs/core/src/tools/handlers/shell.rs, generalized to
// run_command per the Tool Registry contract.
type ShellTool struct{}

// NewShellTool creates a new run_command handler.
func NewShellTool() *ShellTool {
	return &ShellTool{}
}

// Name returns the tool's name.
func (t *ShellTool) Name() string {
	return "run_command"
}

// Kind returns ToolKindFunction.
func (t *ShellTool) Kind() tools.ToolKind {
	return tools.ToolKindFunction
}

// IsMutating reports whether the command is anything other than
// commandsafety.Safe — used as the default mutating signal before a
// per-call safety level is computed by the approval layer.
func (t *ShellTool) IsMutating(invocation *tools.ToolInvocation) bool {
	command, ok := invocation.Arguments["cmd"].(string)
	if !ok || command == "" {
		return true
	}
	level, _ := commandsafety.Classify(command)
	return level != commandsafety.Safe
}

// Handle executes the command. Timeout is managed by Temporal's
// StartToCloseTimeout on the activity options; the context is cancelled
// when the timeout fires and the caller surfaces a distinct timeout result.
//
// Maps to: codex-rs/core/src/tools/handlers/shell.rs handle
func (t *ShellTool) Handle(ctx context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	command, ok := invocation.Arguments["cmd"].(string)
	if !ok {
		return nil, tools.NewValidationError("cmd must be a string")
	}
	if command == "" {
		return nil, tools.NewValidationError("cmd cannot be empty")
	}

	cwd := invocation.Cwd
	var sandboxHome string
	if invocation.SandboxPolicy != nil && invocation.SandboxPolicy.Root != "" {
		guard, err := sandbox.NewGuard(invocation.SandboxPolicy.Root)
		if err != nil {
			return nil, tools.NewValidationError("sandbox setup failed: " + err.Error())
		}
		cwd = guard.Root()
		sandboxHome = guard.Root()
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	if cwd != "" {
		cmd.Dir = cwd
	}

	if invocation.EnvPolicy != nil {
		filteredEnv := resolveFilteredEnv(invocation.EnvPolicy)
		cmd.Env = execenv.EnvMapToSlice(filteredEnv)
	}
	if sandboxHome != "" {
		if cmd.Env == nil {
			cmd.Env = os.Environ()
		}
		cmd.Env = appendEnvMap(cmd.Env, map[string]string{"HOME": sandboxHome})
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	output := execpkg.AggregateOutput(stdoutBuf.Bytes(), stderrBuf.Bytes())

	if err != nil {
		if ctx.Err() != nil {
			// Context cancelled or deadline exceeded — a distinct timeout
			// error, not a process exit code.
			return nil, ctx.Err()
		}
		success := false
		return &tools.ToolOutput{
			Content: string(output),
			Success: &success,
		}, nil
	}

	success := true
	return &tools.ToolOutput{
		Content: string(output),
		Success: &success,
	}, nil
}

// resolveFilteredEnv converts an EnvPolicyRef to a filtered environment map.
func resolveFilteredEnv(ref *tools.EnvPolicyRef) map[string]string {
	if ref == nil {
		return nil
	}
	policy := &execenv.ShellEnvironmentPolicy{
		Inherit:               execenv.Inherit(ref.Inherit),
		IgnoreDefaultExcludes: ref.IgnoreDefaultExcludes,
		Exclude:               ref.Exclude,
		Set:                   ref.Set,
		IncludeOnly:           ref.IncludeOnly,
	}
	return execenv.CreateEnv(policy)
}

// appendEnvMap appends key=value pairs from a map to an env slice.
func appendEnvMap(base []string, envMap map[string]string) []string {
	for k, v := range envMap {
		base = append(base, k+"="+v)
	}
	return base
}
