package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentInstance is the ent schema for agent_instances.
type AgentInstance struct {
	ent.Schema
}

// Fields of AgentInstance.
func (AgentInstance) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").Unique().Immutable(),
		field.String("template_id").NotEmpty(),
		field.Int("template_version"),
		field.String("spawned_by_user_id").NotEmpty(),
		field.String("parent_instance_id").Optional().Nillable(),
		field.String("root_instance_id").NotEmpty(),
		field.Int("depth").Default(0).Min(0),
		field.String("status").NotEmpty(), // queued|running|awaiting_approval|completed|failed|cancelled
		field.String("current_state").Optional(),
		field.Int("step").Default(0),
		field.Text("task").Optional(),
		field.String("context").Optional(), // JSON-encoded map[string]interface{}
		field.String("result").Optional().Nillable(),
		field.String("error").Optional().Nillable(),
		field.Int64("tokens_used").Default(0),
		field.Float("cost").Default(0),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
		field.Time("completed_at").Optional().Nillable(),
	}
}

// Indexes of AgentInstance.
func (AgentInstance) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("spawned_by_user_id", "status"),
		index.Fields("parent_instance_id"),
		index.Fields("root_instance_id"),
	}
}
