package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentcore/orchestrator/internal/models"
)

// Pool wraps a pgx connection pool shared by the three table-specific
// repositories (§6). Construct once per process and hand each Repo to the
// spawn/eventlog packages that need it.
type Pool struct {
	db *pgxpool.Pool
}

// Open connects to Postgres at dsn and returns a ready Pool. Callers should
// run Migrate(dsn) once before Open in a fresh environment.
func Open(ctx context.Context, dsn string) (*Pool, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Pool) Close() { p.db.Close() }

// Templates returns a repository over agent_templates, implementing
// spawn.TemplateStore.
func (p *Pool) Templates() *TemplateRepo { return &TemplateRepo{db: p.db} }

// Instances returns a repository over agent_instances, implementing
// spawn.InstanceStore.
func (p *Pool) Instances() *InstanceRepo { return &InstanceRepo{db: p.db} }

// Events returns a repository over agent_events, implementing
// eventlog.Store.
func (p *Pool) Events() *EventRepo { return &EventRepo{db: p.db} }

// --- Templates --------------------------------------------------------

// TemplateRepo implements spawn.TemplateStore against agent_templates.
type TemplateRepo struct {
	db *pgxpool.Pool
}

// Get implements spawn.TemplateStore.
func (r *TemplateRepo) Get(ctx context.Context, id string) (*models.Template, bool, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, owner_id, scope, spec, version, required_roles, max_template_tools, is_active
		FROM agent_templates WHERE id = $1`, id)

	var (
		t        models.Template
		specJSON string
		reqRoles []string
		maxTools []string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Scope, &specJSON, &t.Version, &reqRoles, &maxTools, &t.IsActive); err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query template %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(specJSON), &t.Spec); err != nil {
		return nil, false, fmt.Errorf("decode template %s spec: %w", id, err)
	}
	t.RequiredRoles = reqRoles
	t.MaxTemplateTools = maxTools
	return &t, true, nil
}

// Put upserts a Template row.
func (r *TemplateRepo) Put(ctx context.Context, t *models.Template) error {
	specJSON, err := json.Marshal(t.Spec)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO agent_templates (id, owner_id, scope, spec, version, required_roles, max_template_tools, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id, scope = EXCLUDED.scope, spec = EXCLUDED.spec,
			version = EXCLUDED.version, required_roles = EXCLUDED.required_roles,
			max_template_tools = EXCLUDED.max_template_tools, is_active = EXCLUDED.is_active`,
		t.ID, t.OwnerID, t.Scope, string(specJSON), t.Version, t.RequiredRoles, t.MaxTemplateTools, t.IsActive)
	return err
}

// --- Instances ----------------------------------------------------------

// InstanceRepo implements spawn.InstanceStore against agent_instances.
type InstanceRepo struct {
	db *pgxpool.Pool
}

// Create implements spawn.InstanceStore. The insert runs inside its own
// transaction so the caller's concurrency-cap count query
// (CountNonTerminalByPrincipal) and this insert can be composed by the
// caller within a single SERIALIZABLE transaction when stricter isolation
// than read-committed is required; at read-committed the unique id and
// server-generated spawn path already make double-insert impossible, and
// the cap check race is closed by re-checking the count immediately before
// this call inside spawn.Spawner.
func (r *InstanceRepo) Create(ctx context.Context, inst *models.Instance) error {
	ctxJSON, err := json.Marshal(inst.Context)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO agent_instances
			(id, template_id, template_version, spawned_by_user_id, parent_instance_id,
			 root_instance_id, depth, status, current_state, step, task, context,
			 tokens_used, cost, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		inst.ID, inst.TemplateRef, inst.TemplateVersion, inst.PrincipalID, inst.Parent,
		inst.Root, inst.Depth, string(inst.Status), inst.CurrentState, inst.Step, inst.Task, string(ctxJSON),
		inst.TokensUsed, inst.Cost, inst.CreatedAt, inst.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert instance %s: %w", inst.ID, err)
	}
	return nil
}

// Get implements spawn.InstanceStore.
func (r *InstanceRepo) Get(ctx context.Context, id string) (*models.Instance, bool, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, template_id, template_version, spawned_by_user_id, parent_instance_id,
		       root_instance_id, depth, status, current_state, step, task, context,
		       result, error, tokens_used, cost, created_at, updated_at, completed_at
		FROM agent_instances WHERE id = $1`, id)

	var (
		inst    models.Instance
		status  string
		ctxJSON *string
	)
	if err := row.Scan(&inst.ID, &inst.TemplateRef, &inst.TemplateVersion, &inst.PrincipalID, &inst.Parent,
		&inst.Root, &inst.Depth, &status, &inst.CurrentState, &inst.Step, &inst.Task, &ctxJSON,
		&inst.Result, &inst.Error, &inst.TokensUsed, &inst.Cost, &inst.CreatedAt, &inst.UpdatedAt, &inst.CompletedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query instance %s: %w", id, err)
	}
	inst.Status = models.InstanceStatus(status)
	if ctxJSON != nil {
		_ = json.Unmarshal([]byte(*ctxJSON), &inst.Context)
	}
	return &inst, true, nil
}

// CountNonTerminalByPrincipal implements spawn.InstanceStore.
func (r *InstanceRepo) CountNonTerminalByPrincipal(ctx context.Context, principalID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM agent_instances
		WHERE spawned_by_user_id = $1 AND status IN ('queued','running','awaiting_approval')`,
		principalID).Scan(&n)
	return n, err
}

// CountNonTerminalChildren implements spawn.InstanceStore.
func (r *InstanceRepo) CountNonTerminalChildren(ctx context.Context, parentID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM agent_instances
		WHERE parent_instance_id = $1 AND status IN ('queued','running','awaiting_approval')`,
		parentID).Scan(&n)
	return n, err
}

// UpdateStatus implements spawn.InstanceStore.
func (r *InstanceRepo) UpdateStatus(ctx context.Context, id string, status models.InstanceStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE agent_instances SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	return err
}

// --- Events ---------------------------------------------------------------

// EventRepo implements eventlog.Store against agent_events.
type EventRepo struct {
	db *pgxpool.Pool
}

// Append implements eventlog.Store.
func (r *EventRepo) Append(ctx context.Context, e models.Event) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO agent_events (id, instance_id, event_type, payload, trace_id, span_id, tokens_used, latency_ms, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.InstanceRef, string(e.EventType), e.Payload, e.TraceID, e.SpanID, e.TokensUsed, e.LatencyMs, e.Timestamp)
	return err
}

// ByInstance implements eventlog.Store.
func (r *EventRepo) ByInstance(ctx context.Context, instanceRef string) ([]models.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, instance_id, event_type, payload, trace_id, span_id, tokens_used, latency_ms, timestamp
		FROM agent_events WHERE instance_id = $1 ORDER BY timestamp ASC`, instanceRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ByRoot implements eventlog.Store by joining through agent_instances'
// root_instance_id rather than walking parent pointers in Go — the whole
// point of persisting root on every Instance is to make this a single
// indexed query (§4.H: "queryable by instance_ref and root ancestry").
func (r *EventRepo) ByRoot(ctx context.Context, root string, _ func(ref string) (*string, bool)) ([]models.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.instance_id, e.event_type, e.payload, e.trace_id, e.span_id, e.tokens_used, e.latency_ms, e.timestamp
		FROM agent_events e
		JOIN agent_instances i ON i.id = e.instance_id
		WHERE i.root_instance_id = $1
		ORDER BY e.timestamp ASC`, root)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]models.Event, error) {
	var out []models.Event
	for rows.Next() {
		var (
			e         models.Event
			eventType string
		)
		if err := rows.Scan(&e.ID, &e.InstanceRef, &eventType, &e.Payload, &e.TraceID, &e.SpanID, &e.TokensUsed, &e.LatencyMs, &e.Timestamp); err != nil {
			return nil, err
		}
		e.EventType = models.EventType(eventType)
		out = append(out, e)
	}
	return out, rows.Err()
}
