// Package presence maps transient socket connections to stable entity
// identities with automatic expiry.
//
// Each registration writes two reciprocal keys with identical TTL:
//
//	socket:{socketId}:{kind} → entityId
//	{kind}:{entityId}:socket → socketId
//
// Disconnect deletes only the socket→entity key; the reverse key is left to
// expire naturally. That leaves reverse lookups stale for at most one TTL
// after a disconnect, in exchange for halving the writes on the hot
// disconnect path. Callers of ReverseLookup must tolerate that window.
package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/marminbh/location-svc/internal/models"
)

// KV is the flat key-value store the registry writes to. Implemented by
// redisstore.KV; tests use an in-memory fake.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	SetPairWithTTL(ctx context.Context, key1, value1, key2, value2 string, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (ok bool, err error)
	Del(ctx context.Context, keys ...string) error
}

// Registry is the presence registry. Safe for concurrent use; the debounce
// map is local to this process, so multiple instances debounce
// independently (that bounds store write volume, not correctness).
type Registry struct {
	kv               KV
	ttl              time.Duration
	touchMinInterval time.Duration
	logger           *zap.Logger

	mu        sync.Mutex
	lastTouch map[string]time.Time // "{kind}:{socketId}" → last successful touch
}

// NewRegistry creates a Registry. ttl is the presence expiry; touches closer
// together than touchMinInterval are suppressed.
func NewRegistry(kv KV, ttl, touchMinInterval time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		kv:               kv,
		ttl:              ttl,
		touchMinInterval: touchMinInterval,
		logger:           logger,
		lastTouch:        make(map[string]time.Time),
	}
}

func socketKey(kind models.EntityKind, socketID string) string {
	return fmt.Sprintf("socket:%s:%s", socketID, kind)
}

func entityKey(kind models.EntityKind, entityID string) string {
	return fmt.Sprintf("%s:%s:socket", kind, entityID)
}

func debounceKey(kind models.EntityKind, socketID string) string {
	return string(kind) + ":" + socketID
}

// Register writes both reciprocal keys atomically with the registry TTL and
// resets the touch debounce for this socket. A pipeline failure is surfaced
// for the caller to retry; no partial-write handling happens here.
func (r *Registry) Register(ctx context.Context, kind models.EntityKind, socketID, entityID string) error {
	err := r.kv.SetPairWithTTL(ctx,
		socketKey(kind, socketID), entityID,
		entityKey(kind, entityID), socketID,
		r.ttl,
	)
	if err != nil {
		return fmt.Errorf("register %s %s: %w", kind, socketID, err)
	}

	r.mu.Lock()
	r.lastTouch[debounceKey(kind, socketID)] = time.Now()
	r.mu.Unlock()

	r.logger.Debug("Presence registered",
		zap.String("kind", string(kind)),
		zap.String("socket_id", socketID),
		zap.String("entity_id", entityID),
	)
	return nil
}

// Lookup returns the entity bound to a socket. Pure read; does not extend
// the TTL.
func (r *Registry) Lookup(ctx context.Context, kind models.EntityKind, socketID string) (entityID string, ok bool, err error) {
	return r.kv.Get(ctx, socketKey(kind, socketID))
}

// ReverseLookup returns the socket bound to an entity. Pure read. Subject to
// the post-disconnect staleness window documented on the package.
func (r *Registry) ReverseLookup(ctx context.Context, kind models.EntityKind, entityID string) (socketID string, ok bool, err error) {
	return r.kv.Get(ctx, entityKey(kind, entityID))
}

// Touch refreshes the TTL on the socket→entity key. Calls within
// touchMinInterval of the last successful touch are no-ops. If the key has
// already expired, the registry self-heals by re-registering both
// directions. A store error (e.g. timeout) is returned without retrying and
// without consuming the debounce window.
func (r *Registry) Touch(ctx context.Context, kind models.EntityKind, socketID, entityID string) error {
	dk := debounceKey(kind, socketID)

	r.mu.Lock()
	last, seen := r.lastTouch[dk]
	r.mu.Unlock()
	if seen && time.Since(last) < r.touchMinInterval {
		return nil
	}

	ok, err := r.kv.Expire(ctx, socketKey(kind, socketID), r.ttl)
	if err != nil {
		return fmt.Errorf("touch %s %s: %w", kind, socketID, err)
	}
	if !ok {
		// Key expired between touches — restore both directions.
		r.logger.Debug("Presence key expired, re-registering",
			zap.String("kind", string(kind)),
			zap.String("socket_id", socketID),
		)
		return r.Register(ctx, kind, socketID, entityID)
	}

	r.mu.Lock()
	r.lastTouch[dk] = time.Now()
	r.mu.Unlock()
	return nil
}

// Disconnect deletes the socket→entity key and clears the debounce
// bookkeeping. The entity→socket key is deliberately left to expire.
func (r *Registry) Disconnect(ctx context.Context, kind models.EntityKind, socketID, entityID string) error {
	if err := r.kv.Del(ctx, socketKey(kind, socketID)); err != nil {
		return fmt.Errorf("disconnect %s %s: %w", kind, socketID, err)
	}

	r.mu.Lock()
	delete(r.lastTouch, debounceKey(kind, socketID))
	r.mu.Unlock()

	r.logger.Debug("Presence removed",
		zap.String("kind", string(kind)),
		zap.String("socket_id", socketID),
		zap.String("entity_id", entityID),
	)
	return nil
}
