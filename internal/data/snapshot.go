package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tdmkt/tdseq/internal/domain/demark"
)

// ErrSnapshotMissing is returned when no snapshot has been published for a
// symbol (or it has expired).
var ErrSnapshotMissing = errors.New("no snapshot for symbol")

// SnapshotStore publishes the latest per-instrument indicator state to redis
// for live consumers. The engine itself stays pure; publishing is caller-side.
type SnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotStore wraps a redis client. A zero ttl keeps snapshots forever.
func NewSnapshotStore(rdb *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{rdb: rdb, ttl: ttl}
}

func snapshotKey(symbol string) string {
	return fmt.Sprintf("tdseq:snapshot:%s", symbol)
}

// Put stores the latest state for a symbol.
func (s *SnapshotStore) Put(ctx context.Context, symbol string, st demark.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, snapshotKey(symbol), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot for %s: %w", symbol, err)
	}
	return nil
}

// Get fetches the latest stored state for a symbol.
func (s *SnapshotStore) Get(ctx context.Context, symbol string) (demark.State, error) {
	var st demark.State
	payload, err := s.rdb.Get(ctx, snapshotKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return st, ErrSnapshotMissing
	}
	if err != nil {
		return st, fmt.Errorf("failed to fetch snapshot for %s: %w", symbol, err)
	}
	if err := json.Unmarshal(payload, &st); err != nil {
		return st, fmt.Errorf("failed to decode snapshot for %s: %w", symbol, err)
	}
	return st, nil
}
