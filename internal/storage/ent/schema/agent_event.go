package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentEvent is the ent schema for agent_events — append-only, never
// updated or deleted after insert.
type AgentEvent struct {
	ent.Schema
}

// Fields of AgentEvent.
func (AgentEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").Unique().Immutable(),
		field.String("instance_id").NotEmpty().Immutable(),
		field.String("event_type").NotEmpty().Immutable(),
		field.String("payload").Optional().Immutable(), // JSON-encoded
		field.String("trace_id").Optional().Immutable(),
		field.String("span_id").Optional().Immutable(),
		field.Int64("tokens_used").Default(0).Immutable(),
		field.Int64("latency_ms").Optional().Immutable(),
		field.Time("timestamp").Default(time.Now).Immutable(),
	}
}

// Indexes of AgentEvent.
func (AgentEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("instance_id", "timestamp"),
	}
}
