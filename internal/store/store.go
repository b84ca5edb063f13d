// Package store defines the durable key–value store the sync engine persists
// into, plus SQLite-backed and in-memory implementations.
//
// The engine never touches a concrete database directly: everything goes
// through the Store interface so test doubles and alternative backends can be
// injected.
package store

import "context"

// Store is a durable, process-surviving key→string store.
//
// Get returns common.ErrorNotFound when the key is absent. All multi-key
// operations are atomic per implementation guarantees: SetMany and RemoveMany
// either apply fully or not at all for the SQLite store; the in-memory store
// applies them under a single lock.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, kv map[string]string) error
	Remove(ctx context.Context, key string) error
	RemoveMany(ctx context.Context, keys []string) error
	Keys(ctx context.Context) ([]string, error)
}
