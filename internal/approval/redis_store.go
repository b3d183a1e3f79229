package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the Approval State Machine with Redis so PendingCalls
// are visible across worker processes (§4.D, §9: "Pending calls ... For
// any multi-process deployment this must become a shared store with TTL").
// Redis's own key expiry enforces the TTL side of proposed→expired, and
// GETDEL gives the same atomic "resolve once" semantics the in-memory
// Machine gets for free from single-threaded workflow execution.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing redis client. keyPrefix namespaces keys
// (e.g. "approval:" + session id) so multiple sessions' pending calls don't
// collide in a shared Redis instance.
func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, prefix: keyPrefix}
}

func (r *RedisStore) key(callID string) string {
	return r.prefix + callID
}

// Propose writes a new PendingCall with a Redis TTL matching its approval
// window, so an unresolved call disappears on its own without a separate
// sweep.
func (r *RedisStore) Propose(ctx context.Context, pc *PendingCall) error {
	data, err := json.Marshal(pc)
	if err != nil {
		return err
	}
	ttl := pc.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return r.client.Set(ctx, r.key(pc.CallID), data, ttl).Err()
}

// Resolve atomically fetches-and-deletes the PendingCall for callID (via
// GETDEL), so a concurrent second resolution of the same id always sees a
// miss — the same guarantee the in-memory Machine provides by deleting on
// resolve.
func (r *RedisStore) Resolve(ctx context.Context, callID string, to Status) (*PendingCall, error) {
	raw, err := r.client.GetDel(ctx, r.key(callID)).Result()
	if err == redis.Nil {
		return nil, notFound(callID)
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel: %w", err)
	}

	var pc PendingCall
	if err := json.Unmarshal([]byte(raw), &pc); err != nil {
		return nil, fmt.Errorf("decode pending call: %w", err)
	}
	if pc.IsExpired(time.Now()) {
		return nil, expired(callID)
	}
	pc.Status = to
	return &pc, nil
}

// Get fetches a PendingCall without resolving it, for status queries.
func (r *RedisStore) Get(ctx context.Context, callID string) (*PendingCall, error) {
	raw, err := r.client.Get(ctx, r.key(callID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var pc PendingCall
	if err := json.Unmarshal([]byte(raw), &pc); err != nil {
		return nil, fmt.Errorf("decode pending call: %w", err)
	}
	return &pc, nil
}
