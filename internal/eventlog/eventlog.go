// Package eventlog implements the append-only Event Log (§4.H): every
// externally-meaningful Instance transition is written as an Event,
// queryable by instance_ref and by root ancestry.
//
// Maps to: spec.md §4.H. Backed by internal/storage's Postgres repository
// when configured, or an in-memory store for development/tests — mirroring
// the teacher's pattern of an interface plus a real and an in-memory
// implementation.
package eventlog

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/orchestrator/internal/models"
)

// Store persists and queries Events.
type Store interface {
	Append(ctx context.Context, e models.Event) error
	ByInstance(ctx context.Context, instanceRef string) ([]models.Event, error)
	ByRoot(ctx context.Context, root string, instanceOf func(ref string) (parent *string, ok bool)) ([]models.Event, error)
}

// InMemoryStore is a process-local Store used for development and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []models.Event
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, e models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *InMemoryStore) ByInstance(_ context.Context, instanceRef string) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Event
	for _, e := range s.events {
		if e.InstanceRef == instanceRef {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// ByRoot returns every event for every instance descended from (or equal
// to) root. instanceOf resolves an instance's parent id, letting the
// caller supply the InstanceStore's ancestry without eventlog depending on
// the spawn package.
func (s *InMemoryStore) ByRoot(ctx context.Context, root string, instanceOf func(ref string) (*string, bool)) ([]models.Event, error) {
	s.mu.RLock()
	instanceRefs := make(map[string]bool)
	for _, e := range s.events {
		instanceRefs[e.InstanceRef] = true
	}
	s.mu.RUnlock()

	descendants := map[string]bool{root: true}
	for ref := range instanceRefs {
		cur := ref
		for {
			if descendants[cur] {
				descendants[ref] = true
				break
			}
			parent, ok := instanceOf(cur)
			if !ok || parent == nil {
				break
			}
			cur = *parent
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Event
	for _, e := range s.events {
		if descendants[e.InstanceRef] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Log is the Event Log's write-side API: typed helpers for each event kind
// named in §4.H, so callers never hand-build an Event.
type Log struct {
	store   Store
	metrics *Metrics
}

// NewLog wraps a Store with the typed append helpers and Prometheus
// metrics.
func NewLog(store Store, metrics *Metrics) *Log {
	return &Log{store: store, metrics: metrics}
}

func (l *Log) append(ctx context.Context, instanceRef string, eventType models.EventType, payload interface{}, tokensUsed, latencyMs int64) error {
	data, _ := json.Marshal(payload)
	e := models.Event{
		ID:          uuid.NewString(),
		InstanceRef: instanceRef,
		EventType:   eventType,
		Payload:     string(data),
		TokensUsed:  tokensUsed,
		LatencyMs:   latencyMs,
		Timestamp:   time.Now().UTC(),
	}
	if l.metrics != nil {
		l.metrics.Observe(e)
	}
	return l.store.Append(ctx, e)
}

// AppendSpawned implements spawn.EventSink — the spawned Event is always
// the first event for a new Instance.
func (l *Log) AppendSpawned(ctx context.Context, inst *models.Instance) error {
	return l.append(ctx, inst.ID, models.EventSpawned, map[string]interface{}{
		"template_ref": inst.TemplateRef,
		"parent":       inst.Parent,
		"root":         inst.Root,
		"depth":        inst.Depth,
	}, 0, 0)
}

func (l *Log) StepStarted(ctx context.Context, instanceRef string, step int) error {
	return l.append(ctx, instanceRef, models.EventStepStarted, map[string]interface{}{"step": step}, 0, 0)
}

func (l *Log) ToolCallIssued(ctx context.Context, instanceRef, toolName, callID string) error {
	return l.append(ctx, instanceRef, models.EventToolCallIssued, map[string]interface{}{"tool": toolName, "call_id": callID}, 0, 0)
}

func (l *Log) ToolCallApproved(ctx context.Context, instanceRef, callID string) error {
	return l.append(ctx, instanceRef, models.EventToolCallApproved, map[string]interface{}{"call_id": callID}, 0, 0)
}

func (l *Log) ToolCallRejected(ctx context.Context, instanceRef, callID, reason string) error {
	return l.append(ctx, instanceRef, models.EventToolCallRejected, map[string]interface{}{"call_id": callID, "reason": reason}, 0, 0)
}

func (l *Log) ToolCallResult(ctx context.Context, instanceRef, callID string, success bool, latencyMs int64) error {
	return l.append(ctx, instanceRef, models.EventToolCallResult, map[string]interface{}{"call_id": callID, "success": success}, 0, latencyMs)
}

func (l *Log) ModelTurn(ctx context.Context, instanceRef string, tokensUsed, latencyMs int64) error {
	return l.append(ctx, instanceRef, models.EventModelTurn, nil, tokensUsed, latencyMs)
}

func (l *Log) Completed(ctx context.Context, instanceRef string) error {
	return l.append(ctx, instanceRef, models.EventCompleted, nil, 0, 0)
}

func (l *Log) Failed(ctx context.Context, instanceRef, reason string) error {
	return l.append(ctx, instanceRef, models.EventFailed, map[string]interface{}{"reason": reason}, 0, 0)
}

func (l *Log) Cancelled(ctx context.Context, instanceRef string) error {
	return l.append(ctx, instanceRef, models.EventCancelled, nil, 0, 0)
}

// ByInstance delegates to the underlying store.
func (l *Log) ByInstance(ctx context.Context, instanceRef string) ([]models.Event, error) {
	return l.store.ByInstance(ctx, instanceRef)
}

// ByRoot delegates to the underlying store.
func (l *Log) ByRoot(ctx context.Context, root string, instanceOf func(ref string) (*string, bool)) ([]models.Event, error) {
	return l.store.ByRoot(ctx, root, instanceOf)
}
