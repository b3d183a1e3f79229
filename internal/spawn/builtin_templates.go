package spawn

import "github.com/agentcore/orchestrator/internal/models"

// BuiltinTemplateID returns the template id registered for a harness agent
// role (default, orchestrator, worker, explorer, planner). The collab
// subsystem's spawn_agent tool names roles, not templates, so every role
// gets a standing global template a SpawnAgent activity call resolves by
// this id.
func BuiltinTemplateID(role string) string {
	return "builtin:" + role
}

// SeedBuiltinTemplates registers one global Template per harness agent role
// so the existing spawn_agent tool (role-keyed) can run through the same
// governance path (role/depth/concurrency checks, EffectivePermissions) as
// a template-keyed spawn. Each builtin template has no required_roles
// (open to any authenticated principal) and an unrestricted AllowedTools
// set — role_tools(role) still narrows it down to what EffectivePermissions
// actually grants.
func SeedBuiltinTemplates(store *InMemoryTemplateStore) {
	for _, role := range []string{"default", "orchestrator", "worker", "explorer", "planner"} {
		store.Put(&models.Template{
			ID:      BuiltinTemplateID(role),
			OwnerID: "system",
			Scope:   models.TemplateScopeGlobal,
			Spec: models.AgentSpec{
				Objective:    "harness subagent (" + role + ")",
				AllowedTools: []string{"*"},
				MaxSteps:     20,
			},
			Version:  1,
			IsActive: true,
		})
	}
}
