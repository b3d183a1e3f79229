package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/agentcore/orchestrator/internal/models"
	"github.com/agentcore/orchestrator/internal/rbac"
	"github.com/agentcore/orchestrator/internal/spawn"
)

// SpawnActivities wraps spawn.Spawner for invocation from workflow code.
// Spawner reads and writes the shared Template/Instance stores and the
// Event Log — state a workflow must never touch directly, the same
// constraint that already routes MCP connections through McpStore.
type SpawnActivities struct {
	spawner *spawn.Spawner
}

// NewSpawnActivities wraps a pre-built Spawner (in-memory for a single
// worker process, or storage.Pool-backed for a multi-worker deployment).
func NewSpawnActivities(spawner *spawn.Spawner) *SpawnActivities {
	return &SpawnActivities{spawner: spawner}
}

// SpawnAgentInput is the input for the SpawnAgent activity.
type SpawnAgentInput struct {
	TemplateID       string                 `json:"template_id"`
	PrincipalID      string                 `json:"principal_id"`
	Role             string                 `json:"role"`
	ParentInstanceID *string                `json:"parent_instance_id,omitempty"`
	Task             string                 `json:"task"`
	Context          map[string]interface{} `json:"context,omitempty"`
}

// SpawnAgentOutput is the output from the SpawnAgent activity.
type SpawnAgentOutput struct {
	Instance models.Instance `json:"instance"`
}

// SpawnAgent runs the §4.G spawn procedure and persists the new Instance.
// Governance rejections (template_not_found, insufficient_role,
// spawn_depth_exceeded, spawn_limit_exceeded, spawn_circular) come back as
// non-retryable ApplicationErrors tagged with the spawn.ErrorKind so the
// workflow can surface them verbatim to the caller.
func (a *SpawnActivities) SpawnAgent(ctx context.Context, input SpawnAgentInput) (SpawnAgentOutput, error) {
	req := spawn.Request{
		TemplateID:  input.TemplateID,
		PrincipalID: input.PrincipalID,
		Role:        rbac.Role(input.Role),
		Task:        input.Task,
		Context:     input.Context,
	}

	if input.ParentInstanceID != nil {
		parent, ok, err := a.spawner.Instances.Get(ctx, *input.ParentInstanceID)
		if err != nil {
			return SpawnAgentOutput{}, fmt.Errorf("load parent instance %s: %w", *input.ParentInstanceID, err)
		}
		if !ok {
			return SpawnAgentOutput{}, temporal.NewApplicationErrorWithOptions(
				fmt.Sprintf("parent instance %s not found", *input.ParentInstanceID),
				"parent_not_found",
				temporal.ApplicationErrorOptions{NonRetryable: true})
		}
		req.Parent = parent
	}

	inst, err := a.spawner.Spawn(ctx, req)
	if err != nil {
		var spawnErr *spawn.Error
		if errors.As(err, &spawnErr) {
			return SpawnAgentOutput{}, temporal.NewApplicationErrorWithOptions(
				spawnErr.Message, string(spawnErr.Kind), temporal.ApplicationErrorOptions{NonRetryable: true})
		}
		return SpawnAgentOutput{}, fmt.Errorf("spawn agent: %w", err)
	}

	return SpawnAgentOutput{Instance: *inst}, nil
}
