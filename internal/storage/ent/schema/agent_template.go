// Package schema declares the ent schema for the three persisted tables
// spec.md §6 names. These are schema *sources* — `go generate ./...` (entc)
// produces the runtime ent.Client from them; the generated client is not
// checked in here (see DESIGN.md). At runtime, internal/storage/postgres.go
// talks to the same tables directly over pgx, keeping this schema as the
// canonical, reviewable column/constraint declaration.
package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentTemplate is the ent schema for agent_templates.
type AgentTemplate struct {
	ent.Schema
}

// Fields of AgentTemplate.
func (AgentTemplate) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").Unique().Immutable(),
		field.String("owner_id").NotEmpty(),
		field.String("scope").NotEmpty(), // personal|org|global
		field.String("spec").NotEmpty(),  // JSON-encoded models.AgentSpec
		field.Int("version").Default(1),
		field.Strings("required_roles").Optional(),
		field.Strings("max_template_tools").Optional(),
		field.Bool("is_active").Default(true),
	}
}

// Indexes of AgentTemplate.
func (AgentTemplate) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("owner_id"),
		index.Fields("scope"),
	}
}
