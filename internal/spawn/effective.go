// Package spawn implements the governance substance of the Spawner (§4.G):
// Template loading and visibility, role/depth/concurrency checks, and the
// EffectivePermissions derivation that narrows a Template's AgentSpec down
// to what a specific principal, in a specific role, may actually use.
//
// Maps to: original_source/backend-python agent_spawner.py (SpawnPolicy,
// ROLE_TOOL_PERMISSIONS, EffectivePermissions derivation), generalized from
// the teacher's internal/workflow/subagent.go child-workflow mechanics.
package spawn

import (
	"sort"

	"github.com/agentcore/orchestrator/internal/models"
	"github.com/agentcore/orchestrator/internal/rbac"
)

// ComputeEffectivePermissions derives the permissions an Instance actually
// runs with:
//
//	tools       = template.allowed_tools ∩ role_tools(role) ∩ template.max_template_tools
//	max_steps   = min(spec.max_steps, role_max_steps(role))
//	token_budget = role_budget(role)
//
// template.max_template_tools is optional (empty means "no extra cap") —
// only intersected when the template sets it.
func ComputeEffectivePermissions(spec models.AgentSpec, role rbac.Role, maxTemplateTools []string) models.EffectivePermissions {
	allowed := rbac.NewToolSet(spec.AllowedTools...)
	tools := allowed.Intersect(rbac.RoleTools(role))
	if len(maxTemplateTools) > 0 {
		tools = tools.Intersect(rbac.NewToolSet(maxTemplateTools...))
	}

	maxSteps := spec.MaxSteps
	if roleCap := rbac.RoleMaxSteps(role); roleCap < maxSteps || maxSteps <= 0 {
		maxSteps = roleCap
	}

	toolSlice := tools.Slice()
	sort.Strings(toolSlice)

	return models.EffectivePermissions{
		Tools:       toolSlice,
		MaxSteps:    maxSteps,
		TokenBudget: rbac.RoleBudget(role),
	}
}
