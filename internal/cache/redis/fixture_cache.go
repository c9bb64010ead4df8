package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

const fixtureTTL = 5 * time.Minute

// FixtureCache implements domain.FixtureCache using Redis hashes with
// JSON-serialized snapshots.
//
// Key schema:
//
//	fixture:{id} - hash with field "data" containing JSON
type FixtureCache struct {
	rdb *redis.Client
}

// NewFixtureCache creates a FixtureCache backed by the given Client.
func NewFixtureCache(c *Client) *FixtureCache {
	return &FixtureCache{rdb: c.Underlying()}
}

func fixtureKey(id domain.FixtureID) string { return "fixture:" + string(id) }

// Set stores a fixture snapshot with a 5-minute TTL. The engine refreshes
// the snapshot on every ledger or lifecycle mutation, so the TTL only bounds
// staleness for fixtures nothing touches anymore.
func (fc *FixtureCache) Set(ctx context.Context, snap domain.FixtureSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal fixture %s: %w", snap.FixtureID, err)
	}

	key := fixtureKey(snap.FixtureID)

	pipe := fc.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, fixtureTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set fixture %s: %w", snap.FixtureID, err)
	}
	return nil
}

// Get retrieves a fixture snapshot by ID. It returns domain.ErrNotFound when
// the key does not exist.
func (fc *FixtureCache) Get(ctx context.Context, id domain.FixtureID) (domain.FixtureSnapshot, error) {
	data, err := fc.rdb.HGet(ctx, fixtureKey(id), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.FixtureSnapshot{}, domain.ErrNotFound
		}
		return domain.FixtureSnapshot{}, fmt.Errorf("redis: get fixture %s: %w", id, err)
	}

	var snap domain.FixtureSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.FixtureSnapshot{}, fmt.Errorf("redis: unmarshal fixture %s: %w", id, err)
	}
	return snap, nil
}

// Invalidate drops the cached snapshot for a fixture.
func (fc *FixtureCache) Invalidate(ctx context.Context, id domain.FixtureID) error {
	if err := fc.rdb.Del(ctx, fixtureKey(id)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate fixture %s: %w", id, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.FixtureCache = (*FixtureCache)(nil)
