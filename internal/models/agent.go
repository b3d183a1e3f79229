package models

import "time"

// ExecutionMode selects how an agent instance runs its turns.
type ExecutionMode string

const (
	ExecutionModeSingle    ExecutionMode = "single"
	ExecutionModeMultiStep ExecutionMode = "multi_step"
	ExecutionModePlanner   ExecutionMode = "planner"
)

// TemplateScope controls who may spawn an Instance from a Template.
type TemplateScope string

const (
	TemplateScopePersonal TemplateScope = "personal"
	TemplateScopeOrg      TemplateScope = "org"
	TemplateScopeGlobal   TemplateScope = "global"
)

// AgentSpec is the declarative behavior a Template carries: what the agent
// is for, which models/tools it may use, and its execution shape.
type AgentSpec struct {
	Objective          string        `json:"objective"`
	AllowedModels       []string      `json:"allowed_models,omitempty"`
	AllowedTools        []string      `json:"allowed_tools,omitempty"`
	ExecutionMode       ExecutionMode `json:"execution_mode"`
	MaxSteps            int           `json:"max_steps"`
	Summarization       bool          `json:"summarization,omitempty"`
	OutputConstraints   string        `json:"output_constraints,omitempty"`
}

// Template is a reusable, versioned agent definition.
type Template struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"owner_id"`
	Scope           TemplateScope `json:"scope"`
	RequiredRoles   []string      `json:"required_roles,omitempty"`
	Spec            AgentSpec     `json:"spec"`
	Version         int           `json:"version"`
	MaxTemplateTools []string     `json:"max_template_tools,omitempty"`
	IsActive        bool          `json:"is_active"`
}

// InstanceStatus is the lifecycle state of a spawned agent Instance.
type InstanceStatus string

const (
	InstanceStatusQueued           InstanceStatus = "queued"
	InstanceStatusRunning          InstanceStatus = "running"
	InstanceStatusAwaitingApproval InstanceStatus = "awaiting_approval"
	InstanceStatusCompleted        InstanceStatus = "completed"
	InstanceStatusFailed           InstanceStatus = "failed"
	InstanceStatusCancelled        InstanceStatus = "cancelled"
)

// IsTerminal reports whether the status is a final lifecycle state.
func (s InstanceStatus) IsTerminal() bool {
	switch s {
	case InstanceStatusCompleted, InstanceStatusFailed, InstanceStatusCancelled:
		return true
	}
	return false
}

// IsNonTerminal reports whether the status still counts against spawn
// concurrency caps (queued|running|awaiting_approval).
func (s InstanceStatus) IsNonTerminal() bool {
	switch s {
	case InstanceStatusQueued, InstanceStatusRunning, InstanceStatusAwaitingApproval:
		return true
	}
	return false
}

// EffectivePermissions is derived at spawn time and never persisted
// independently of the Instance it was computed for — recomputing it from
// Template+Role+Platform must always be possible, so storing only the
// Instance's provenance (template_ref, principal_id) is sufficient; the
// Instance additionally carries a frozen copy for fast reads.
type EffectivePermissions struct {
	Tools       []string `json:"tools"`
	MaxSteps    int      `json:"max_steps"`
	TokenBudget int64    `json:"token_budget"`
}

// Instance is one spawned, running (or finished) agent.
type Instance struct {
	ID             string                 `json:"id"`
	TemplateRef    string                 `json:"template_ref"`
	TemplateVersion int                   `json:"template_version"`
	PrincipalID    string                 `json:"principal_id"`
	Parent         *string                `json:"parent,omitempty"`
	Root           string                 `json:"root"`
	Depth          int                    `json:"depth"`
	Status         InstanceStatus         `json:"status"`
	CurrentState   string                 `json:"current_state,omitempty"`
	Step           int                    `json:"step"`
	Task           string                 `json:"task,omitempty"`
	Context        map[string]interface{} `json:"context,omitempty"`
	Result         *string                `json:"result,omitempty"`
	Error          *string                `json:"error,omitempty"`
	TokensUsed     int64                  `json:"tokens_used"`
	Cost           float64                `json:"cost"`
	Permissions    EffectivePermissions   `json:"permissions"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
}

// EventType enumerates the append-only Event Log's event kinds (§4.H).
type EventType string

const (
	EventSpawned           EventType = "spawned"
	EventStepStarted       EventType = "step_started"
	EventToolCallIssued    EventType = "tool_call_issued"
	EventToolCallApproved  EventType = "tool_call_approved"
	EventToolCallRejected  EventType = "tool_call_rejected"
	EventToolCallResult    EventType = "tool_call_result"
	EventModelTurn         EventType = "model_turn"
	EventCompleted         EventType = "completed"
	EventFailed            EventType = "failed"
	EventCancelled         EventType = "cancelled"
)

// Event is one append-only record in an Instance's event log.
type Event struct {
	ID         string    `json:"id"`
	InstanceRef string   `json:"instance_ref"`
	EventType  EventType `json:"event_type"`
	Payload    string    `json:"payload,omitempty"` // JSON-encoded
	TraceID    string    `json:"trace_id,omitempty"`
	SpanID     string    `json:"span_id,omitempty"`
	TokensUsed int64     `json:"tokens_used,omitempty"`
	LatencyMs  int64     `json:"latency_ms,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// SafetyLevel classifies a tool call's risk for approval gating (§4.D).
type SafetyLevel string

const (
	SafetySafe      SafetyLevel = "safe"
	SafetyModerate  SafetyLevel = "moderate"
	SafetyDangerous SafetyLevel = "dangerous"
)
