package spawn

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/orchestrator/internal/models"
	"github.com/agentcore/orchestrator/internal/rbac"
)

// Policy bounds how aggressively a principal may spawn agents. Defaults
// match SPEC_FULL.md §3.2 / spec.md §4.G.
type Policy struct {
	MaxDepth            int
	MaxTotalInstances   int
	MaxChildrenPerAgent int
}

// DefaultPolicy returns spec.md's defaults: depth 3, 50 total concurrent
// instances per principal, 10 non-terminal direct children per agent.
func DefaultPolicy() Policy {
	return Policy{
		MaxDepth:            3,
		MaxTotalInstances:   50,
		MaxChildrenPerAgent: 10,
	}
}

// Request is the input to Spawn: what to run, as whom, and under what
// parentage.
type Request struct {
	TemplateID  string
	PrincipalID string
	Role        rbac.Role
	Parent      *models.Instance // nil for a root spawn
	Task        string
	Context     map[string]interface{}
}

// EventSink records the append-only "spawned" Event a successful spawn
// must write (§4.H). Implemented by internal/eventlog.
type EventSink interface {
	AppendSpawned(ctx context.Context, inst *models.Instance) error
}

// Spawner implements the 7-step spawn procedure of spec.md §4.G.
type Spawner struct {
	Templates TemplateStore
	Instances InstanceStore
	Events    EventSink
	Policy    Policy

	// visible, when set, overrides the default visibility check — used to
	// plug in InMemoryTemplateStore.Visible without a type assertion at
	// every call site. Postgres-backed stores can set this to a closure
	// over their own visibility query.
	Visible func(t *models.Template, principalID, role string) bool
}

// NewSpawner builds a Spawner with the default policy.
func NewSpawner(templates TemplateStore, instances InstanceStore, events EventSink) *Spawner {
	return &Spawner{
		Templates: templates,
		Instances: instances,
		Events:    events,
		Policy:    DefaultPolicy(),
	}
}

// Spawn runs the full spawn procedure:
//  1. load template (template_not_found if missing/inactive/not-visible)
//  2. required_roles check (insufficient_role)
//  3. resolve parent/depth/root
//  4. enforce max_depth (spawn_depth_exceeded) and max_total_instances /
//     max_children_per_agent (spawn_limit_exceeded)
//  5. compute EffectivePermissions
//  6. deep-copy context, inject _effective_permissions
//  7. persist Instance (status=queued) and append a spawned Event
func (sp *Spawner) Spawn(ctx context.Context, req Request) (*models.Instance, error) {
	tmpl, ok, err := sp.Templates.Get(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !ok || !tmpl.IsActive {
		return nil, newError(ErrTemplateNotFound, "template %q not found or inactive", req.TemplateID)
	}
	if sp.Visible != nil && !sp.Visible(tmpl, req.PrincipalID, string(req.Role)) {
		return nil, newError(ErrTemplateNotFound, "template %q not visible to principal %q", req.TemplateID, req.PrincipalID)
	}

	if !rbac.SatisfiesAny(req.Role, rolesOf(tmpl.RequiredRoles)) {
		return nil, newError(ErrInsufficientRole, "role %q does not satisfy required_roles %v", req.Role, tmpl.RequiredRoles)
	}

	id := uuid.NewString()
	depth := 0
	root := ""
	var parentID *string
	if req.Parent != nil {
		depth = req.Parent.Depth + 1
		root = req.Parent.Root
		pid := req.Parent.ID
		parentID = &pid

		if err := sp.checkCircular(ctx, req.Parent, id); err != nil {
			return nil, err
		}
	}

	policy := sp.Policy
	if policy.MaxDepth == 0 && policy.MaxTotalInstances == 0 && policy.MaxChildrenPerAgent == 0 {
		policy = DefaultPolicy()
	}

	if depth > policy.MaxDepth {
		return nil, newError(ErrSpawnDepthExceeded, "depth %d exceeds policy max_depth %d", depth, policy.MaxDepth)
	}

	totalActive, err := sp.Instances.CountNonTerminalByPrincipal(ctx, req.PrincipalID)
	if err != nil {
		return nil, err
	}
	if totalActive >= policy.MaxTotalInstances {
		return nil, newError(ErrSpawnLimitExceeded, "principal %q already has %d non-terminal instances (max %d)", req.PrincipalID, totalActive, policy.MaxTotalInstances)
	}

	if parentID != nil {
		childCount, err := sp.Instances.CountNonTerminalChildren(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if childCount >= policy.MaxChildrenPerAgent {
			return nil, newError(ErrSpawnLimitExceeded, "parent %q already has %d non-terminal children (max %d)", *parentID, childCount, policy.MaxChildrenPerAgent)
		}
	}

	perms := ComputeEffectivePermissions(tmpl.Spec, req.Role, tmpl.MaxTemplateTools)

	if root == "" {
		root = id
	}

	instCtx := deepCopyContext(req.Context)
	instCtx["_effective_permissions"] = perms

	now := time.Now().UTC()
	inst := &models.Instance{
		ID:              id,
		TemplateRef:     tmpl.ID,
		TemplateVersion: tmpl.Version,
		PrincipalID:     req.PrincipalID,
		Parent:          parentID,
		Root:            root,
		Depth:           depth,
		Status:          models.InstanceStatusQueued,
		Task:            req.Task,
		Context:         instCtx,
		Permissions:     perms,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := sp.Instances.Create(ctx, inst); err != nil {
		return nil, err
	}
	if sp.Events != nil {
		if err := sp.Events.AppendSpawned(ctx, inst); err != nil {
			return nil, err
		}
	}

	return inst, nil
}

// checkCircular defends the structural invariant that an Instance can never
// be its own ancestor. Server-generated ids make this unreachable in
// practice (§3.5 of SPEC_FULL.md) — this walks the parent chain so the
// invariant is still checked, not to handle a real attack path. newID is
// the id generated for the Instance being spawned.
func (sp *Spawner) checkCircular(ctx context.Context, parent *models.Instance, newID string) error {
	cur := parent
	seen := map[string]bool{}
	for cur != nil {
		if cur.ID == newID {
			return newError(ErrSpawnCircular, "instance %q would be its own ancestor", newID)
		}
		if seen[cur.ID] {
			// Already-corrupt ancestry; don't loop forever.
			return nil
		}
		seen[cur.ID] = true
		if cur.Parent == nil {
			break
		}
		next, ok, err := sp.Instances.Get(ctx, *cur.Parent)
		if err != nil || !ok {
			break
		}
		cur = next
	}
	return nil
}

// deepCopyContext returns a structurally independent copy of ctx so a
// spawned Instance never shares storage with its parent's context map.
func deepCopyContext(ctx map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(ctx)+1)
	for k, v := range ctx {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return deepCopyContext(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

func rolesOf(names []string) []rbac.Role {
	out := make([]rbac.Role, len(names))
	for i, n := range names {
		out[i] = rbac.Role(n)
	}
	return out
}
