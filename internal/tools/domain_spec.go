package tools

// NewRunPythonToolSpec creates the specification for the run_python tool
// (§4.B). safety_default is `dangerous`: always_require_approval regardless
// of ApprovalMode (§4.D).
func NewRunPythonToolSpec() ToolSpec {
	return ToolSpec{
		Name:        "run_python",
		Description: "Runs a snippet of Python 3 code in the sandbox and returns its stdout/stderr. Always requires approval.",
		Parameters: []ToolParameter{
			{
				Name:        "code",
				Type:        "string",
				Description: "The Python source to execute",
				Required:    true,
			},
			{
				Name:        "timeout_ms",
				Type:        "number",
				Description: "The timeout for the script in milliseconds",
				Required:    false,
			},
		},
		DefaultTimeoutMs: DefaultShellTimeoutMs,
	}
}

// NewWebSearchToolSpec creates the specification for the web_search tool.
func NewWebSearchToolSpec() ToolSpec {
	return ToolSpec{
		Name:        "web_search",
		Description: "Searches the web and returns a ranked list of results (title, url, snippet).",
		Parameters: []ToolParameter{
			{
				Name:        "query",
				Type:        "string",
				Description: "The search query",
				Required:    true,
			},
			{
				Name:        "num_results",
				Type:        "number",
				Description: "Maximum number of results to return (default 5)",
				Required:    false,
			},
		},
		DefaultTimeoutMs: DefaultToolTimeoutMs,
	}
}

// NewRagQueryToolSpec creates the specification for the rag_query tool.
// Delegated to an MCP server (internal/tools/handlers/rag_query.go) rather
// than implemented locally.
func NewRagQueryToolSpec() ToolSpec {
	return ToolSpec{
		Name:        "rag_query",
		Description: "Retrieves the top_k most relevant passages from the configured retrieval index for query.",
		Parameters: []ToolParameter{
			{
				Name:        "query",
				Type:        "string",
				Description: "The retrieval query",
				Required:    true,
			},
			{
				Name:        "top_k",
				Type:        "number",
				Description: "Number of passages to retrieve (default 5)",
				Required:    false,
			},
		},
		DefaultTimeoutMs: DefaultToolTimeoutMs,
	}
}

// NewThinkToolSpec creates the specification for the think tool. Never
// requires approval (§4.D).
func NewThinkToolSpec() ToolSpec {
	return ToolSpec{
		Name:        "think",
		Description: "Records a scratch thought without taking any action. Use for private reasoning that shouldn't be a user-facing message.",
		Parameters: []ToolParameter{
			{
				Name:        "thought",
				Type:        "string",
				Description: "The thought to record",
				Required:    true,
			},
		},
		DefaultTimeoutMs: DefaultToolTimeoutMs,
	}
}

// NewPlanTaskToolSpec creates the specification for the plan_task tool.
// Never requires approval (§4.D).
func NewPlanTaskToolSpec() ToolSpec {
	return ToolSpec{
		Name:        "plan_task",
		Description: "Records a structured task plan (goal + ordered steps) without taking any action.",
		Parameters: []ToolParameter{
			{
				Name:        "goal",
				Type:        "string",
				Description: "The overall objective",
				Required:    true,
			},
			{
				Name:        "steps",
				Type:        "array",
				Description: "Ordered list of step descriptions",
				Required:    true,
				Items:       map[string]interface{}{"type": "string"},
			},
		},
		DefaultTimeoutMs: DefaultToolTimeoutMs,
	}
}
