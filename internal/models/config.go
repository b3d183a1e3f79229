package models

import "github.com/agentcore/orchestrator/internal/mcp"

// ApprovalMode controls how aggressively tool calls are gated behind
// human approval before execution.
type ApprovalMode string

const (
	// ApprovalNever means tool calls never require approval (fully trusted).
	ApprovalNever ApprovalMode = "never"
	// ApprovalUnlessTrusted requires approval unless the exec policy marks
	// the specific invocation as trusted; dangerous tools always gate.
	ApprovalUnlessTrusted ApprovalMode = "unless-trusted"
	// ApprovalOnFailure runs tools without approval first, gating only on
	// escalation after a failure.
	ApprovalOnFailure ApprovalMode = "on-failure"
)

// ModelConfig configures the LLM model parameters
//
// Maps to: codex-rs/core/src/codex.rs SessionConfiguration (model config part)
type ModelConfig struct {
	Provider        string  `json:"provider,omitempty"`         // e.g., "openai", "anthropic"
	Model           string  `json:"model"`                      // e.g., "gpt-3.5-turbo", "gpt-4"
	Temperature     float64 `json:"temperature"`                // 0.0 to 2.0
	MaxTokens       int     `json:"max_tokens"`                 // Max tokens to generate
	ContextWindow   int     `json:"context_window"`             // Max context window size
	ReasoningEffort string  `json:"reasoning_effort,omitempty"` // "low", "medium", "high"
}

// DefaultModelConfig returns a sensible default configuration
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Provider:      "openai",
		Model:         "gpt-4o-mini",
		Temperature:   0.7,
		MaxTokens:     4096,
		ContextWindow: 128000,
	}
}

// ToolsConfig configures which tools are enabled
//
// Maps to: codex-rs/core/src/codex.rs SessionConfiguration (tools config part)
type ToolsConfig struct {
	EnableShell      bool `json:"enable_shell"`
	EnableReadFile   bool `json:"enable_read_file"`
	EnableWriteFile  bool `json:"enable_write_file,omitempty"`  // Built-in write_file tool
	EnableListDir    bool `json:"enable_list_dir,omitempty"`    // Built-in list_dir tool
	EnableGrepFiles  bool `json:"enable_grep_files,omitempty"`  // Built-in grep_files tool
	EnableApplyPatch bool `json:"enable_apply_patch,omitempty"` // Built-in apply_patch tool

	EnableRunPython bool `json:"enable_run_python,omitempty"` // Built-in run_python tool (§4.B, always-approval)
	EnableWebSearch bool `json:"enable_web_search,omitempty"` // Built-in web_search tool
	EnableRagQuery  bool `json:"enable_rag_query,omitempty"`  // Built-in rag_query tool (delegated to MCP)
	EnableThink     bool `json:"enable_think,omitempty"`      // Built-in think tool (never needs approval)
	EnablePlanTask  bool `json:"enable_plan_task,omitempty"`  // Built-in plan_task tool (never needs approval)

	// EnabledTools, when non-empty, is the explicit allow-list of
	// additional named tools (e.g. collab tools, MCP-qualified names) a
	// session carries. Child sessions inherit a copy from their parent and
	// trim entries via RemoveTools as role overrides apply.
	EnabledTools []string `json:"enabled_tools,omitempty"`
}

// RemoveTools drops the given names from EnabledTools in place. It is a
// no-op for names not present.
func (t *ToolsConfig) RemoveTools(names ...string) {
	if len(t.EnabledTools) == 0 {
		return
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	kept := t.EnabledTools[:0]
	for _, n := range t.EnabledTools {
		if !drop[n] {
			kept = append(kept, n)
		}
	}
	t.EnabledTools = kept
}

// DefaultToolsConfig returns default tools configuration
func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		EnableShell:      true,
		EnableReadFile:   true,
		EnableWriteFile:  true,
		EnableListDir:    true,
		EnableGrepFiles:  true,
		EnableApplyPatch: true,
		EnabledTools:     []string{"shell", "read_file", "write_file", "list_dir", "grep_files", "apply_patch", "collab", "request_user_input"},
	}
}

// SessionConfiguration configures a complete agentic session.
//
// Maps to: codex-rs/core/src/codex.rs SessionConfiguration
type SessionConfiguration struct {
	// Instructions hierarchy (maps to Codex 3-tier system)
	BaseInstructions         string `json:"base_instructions,omitempty"`         // Core system prompt override
	DeveloperInstructions    string `json:"developer_instructions,omitempty"`    // Developer overrides (sent as developer message)
	UserInstructions         string `json:"user_instructions,omitempty"`         // Project docs (AGENTS.md content)
	CLIProjectDocs           string `json:"cli_project_docs,omitempty"`          // AGENTS.md discovered from the CLI's launch directory
	UserPersonalInstructions string `json:"user_personal_instructions,omitempty"` // ~/.codex/instructions.md content

	// Model configuration
	Model ModelConfig `json:"model"`

	// Tool configuration
	Tools ToolsConfig `json:"tools"`

	// Execution context
	Cwd      string `json:"cwd,omitempty"`       // Working directory for tool execution
	CodexHome string `json:"codex_home,omitempty"` // Root for exec policy / instructions discovery

	// ApprovalMode controls tool-call gating for this session.
	ApprovalMode ApprovalMode `json:"approval_mode,omitempty"`

	// ExecPolicyRules is the serialized exec policy rule source, pre-loaded
	// by HarnessWorkflow so child sessions skip a redundant activity call.
	ExecPolicyRules string `json:"exec_policy_rules,omitempty"`

	// SandboxMode selects the tool execution sandbox ("full-access",
	// "read-only", "workspace-write").
	SandboxMode string `json:"sandbox_mode,omitempty"`

	// SandboxWritableRoots lists paths writable under workspace-write mode.
	SandboxWritableRoots []string `json:"sandbox_writable_roots,omitempty"`

	// SandboxNetworkAccess allows network access from the sandbox when true.
	SandboxNetworkAccess bool `json:"sandbox_network_access,omitempty"`

	// SessionTaskQueue is the Temporal task queue tool activities dispatch
	// to; empty uses the worker's default queue.
	SessionTaskQueue string `json:"session_task_queue,omitempty"`

	// AutoCompactTokenLimit overrides the default auto-compaction
	// threshold (fraction of ContextWindow) when non-zero.
	AutoCompactTokenLimit int `json:"auto_compact_token_limit,omitempty"`

	// DisableSuggestions turns off post-turn prompt-suggestion generation.
	DisableSuggestions bool `json:"disable_suggestions,omitempty"`

	// McpServers configures the MCP servers available to this session.
	McpServers map[string]mcp.McpServerConfig `json:"mcp_servers,omitempty"`

	// PrincipalID and PrincipalRole identify the calling user for RBAC
	// purposes: EffectivePermissions derivation, MCP server visibility
	// (§4.C), and spawn attribution.
	PrincipalID   string `json:"principal_id,omitempty"`
	PrincipalRole string `json:"principal_role,omitempty"`

	// Session metadata
	SessionSource string `json:"session_source,omitempty"` // "cli", "api", "exec" — for logging/tracking
}

// DefaultSessionConfiguration returns sensible defaults.
func DefaultSessionConfiguration() SessionConfiguration {
	return SessionConfiguration{
		Model:        DefaultModelConfig(),
		Tools:        DefaultToolsConfig(),
		ApprovalMode: ApprovalUnlessTrusted,
	}
}
