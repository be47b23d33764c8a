// Package cache holds the Redis-backed roster cache. Guest and table
// listings are read far more often than they change (the owner dashboard
// refetches them constantly), so we keep the serialized response per
// owner and drop it on every mutation.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rosterTTL = 60 * time.Second

// Roster caches owner-scoped JSON payloads. A nil Roster (Redis
// disabled) is safe to use; every method becomes a no-op miss.
type Roster struct {
	rdb *redis.Client
}

func NewRoster(rdb *redis.Client) *Roster {
	if rdb == nil {
		return nil
	}
	return &Roster{rdb: rdb}
}

func guestsKey(ownerID uint64) string { return fmt.Sprintf("roster:guests:%d", ownerID) }
func tablesKey(ownerID uint64) string { return fmt.Sprintf("roster:tables:%d", ownerID) }

// GetGuests returns the cached guest listing, or ok=false on a miss.
func (r *Roster) GetGuests(ctx context.Context, ownerID uint64) ([]byte, bool) {
	return r.get(ctx, guestsKey(ownerID))
}

// SetGuests stores a guest listing payload.
func (r *Roster) SetGuests(ctx context.Context, ownerID uint64, payload []byte) {
	r.set(ctx, guestsKey(ownerID), payload)
}

// GetTables returns the cached table listing, or ok=false on a miss.
func (r *Roster) GetTables(ctx context.Context, ownerID uint64) ([]byte, bool) {
	return r.get(ctx, tablesKey(ownerID))
}

// SetTables stores a table listing payload.
func (r *Roster) SetTables(ctx context.Context, ownerID uint64, payload []byte) {
	r.set(ctx, tablesKey(ownerID), payload)
}

// Invalidate drops both listings for an owner. Called after any guest
// or table mutation; assignment changes touch both views.
func (r *Roster) Invalidate(ctx context.Context, ownerID uint64) {
	if r == nil {
		return
	}
	r.rdb.Del(ctx, guestsKey(ownerID), tablesKey(ownerID))
}

func (r *Roster) get(ctx context.Context, key string) ([]byte, bool) {
	if r == nil {
		return nil, false
	}
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *Roster) set(ctx context.Context, key string, payload []byte) {
	if r == nil {
		return
	}
	r.rdb.Set(ctx, key, payload, rosterTTL)
}
