// Package cacheindex maintains the key → last-touched timestamp map used to
// evict stale detail records from the durable store.
package cacheindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/fireguard/internal/common"
	"github.com/dmitrijs2005/fireguard/internal/logging"
	"github.com/dmitrijs2005/fireguard/internal/store"
)

// DefaultTTL is how long a detail record may go untouched before purge.
const DefaultTTL = 30 * 24 * time.Hour

// Index tracks last-touched times for detail storage keys. The map itself is
// persisted under store.DetailIndexKey as JSON of key → epoch milliseconds.
type Index struct {
	store store.Store
	log   logging.Logger
	now   func() time.Time

	// Touch and PurgeStale both read-modify-write the persisted map; the
	// mutex keeps concurrent prefetch workers from losing updates.
	mu sync.Mutex
}

func New(st store.Store, log logging.Logger) *Index {
	return &Index{store: st, log: log, now: time.Now}
}

// Touch sets the key's timestamp to now, creating the entry if absent.
// Callers write the value first and touch second, so a crash in between
// leaves an entry the next purge pass treats as infinitely stale.
func (i *Index) Touch(ctx context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	idx, err := i.load(ctx)
	if err != nil {
		return err
	}
	idx[key] = i.now().UnixMilli()
	return i.save(ctx, idx)
}

// PurgeStale scans all detail-family keys in the store, treats a missing
// index entry as epoch 0, and deletes every key older than ttl from both the
// store and the index. Returns the number of keys removed. Idempotent: a
// second run with no intervening writes removes nothing.
func (i *Index) PurgeStale(ctx context.Context, ttl time.Duration) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	keys, err := i.store.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan store keys: %w", err)
	}

	idx, err := i.load(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := i.now().Add(-ttl).UnixMilli()

	var stale []string
	for _, key := range keys {
		if !store.IsDetailKey(key) {
			continue
		}
		if idx[key] < cutoff { // missing entry reads as 0
			stale = append(stale, key)
		}
	}

	if len(stale) == 0 {
		return 0, nil
	}

	// Values go first; if we crash before the index is rewritten the
	// orphan entries only cost one extra check on the next pass.
	if err := i.store.RemoveMany(ctx, stale); err != nil {
		return 0, fmt.Errorf("failed to remove stale details: %w", err)
	}
	for _, key := range stale {
		delete(idx, key)
	}
	if err := i.save(ctx, idx); err != nil {
		return 0, err
	}

	i.log.Info(ctx, "purged stale details", "removed", len(stale))
	return len(stale), nil
}

func (i *Index) load(ctx context.Context) (map[string]int64, error) {
	raw, err := i.store.Get(ctx, store.DetailIndexKey())
	if errors.Is(err, common.ErrorNotFound) {
		return make(map[string]int64), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load detail index: %w", err)
	}

	idx := make(map[string]int64)
	if err := json.Unmarshal([]byte(raw), &idx); err != nil {
		// A corrupt index is recoverable: dropping it only makes every
		// detail look infinitely stale.
		i.log.Warn(ctx, "detail index corrupt, resetting", "err", err)
		return make(map[string]int64), nil
	}
	return idx, nil
}

func (i *Index) save(ctx context.Context, idx map[string]int64) error {
	b, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to encode detail index: %w", err)
	}
	return i.store.Set(ctx, store.DetailIndexKey(), string(b))
}
