package handlers

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	execpkg "github.com/agentcore/orchestrator/internal/exec"
	"github.com/agentcore/orchestrator/internal/execenv"
	"github.com/agentcore/orchestrator/internal/sandbox"
	"github.com/agentcore/orchestrator/internal/tools"
)

// RunPythonTool implements the run_python built-in (§4.B): runs a snippet of
// Python with CWD pinned to the sandbox root and a reduced environment,
// the same confinement ShellTool applies to run_command.
//
// Maps to: internal/tools/handlers/shell.go, generalized to a second
// interpreter. always_require_approval (§4.D, "dangerous tools always
// require approval regardless of mode") is enforced one layer up by the
// approval gate's safety-level classification, not here.
type RunPythonTool struct{}

// NewRunPythonTool creates a new run_python handler.
func NewRunPythonTool() *RunPythonTool {
	return &RunPythonTool{}
}

func (t *RunPythonTool) Name() string {
	return "run_python"
}

func (t *RunPythonTool) Kind() tools.ToolKind {
	return tools.ToolKindFunction
}

// IsMutating always reports true: run_python's safety_default is `dangerous`
// (§4.B), so it is always treated as environment-affecting regardless of
// what the code actually does.
func (t *RunPythonTool) IsMutating(_ *tools.ToolInvocation) bool {
	return true
}

// Handle runs code via `python3 -c`. A distinct timeout error (vs. a
// non-zero exit code) is surfaced by returning ctx.Err() unchanged, matching
// ShellTool's contract.
func (t *RunPythonTool) Handle(ctx context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	code, ok := invocation.Arguments["code"].(string)
	if !ok {
		return nil, tools.NewValidationError("code must be a string")
	}
	if code == "" {
		return nil, tools.NewValidationError("code cannot be empty")
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

	cmd := exec.CommandContext(ctx, "python3", "-c", code)
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
			return nil, ctx.Err()
		}
		success := false
		return &tools.ToolOutput{Content: string(output), Success: &success}, nil
	}

	success := true
	return &tools.ToolOutput{Content: string(output), Success: &success}, nil
}
