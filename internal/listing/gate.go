package listing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/fireguard/internal/models"
)

// Resolver produces the asset list for a badge/role pair.
type Resolver interface {
	Resolve(ctx context.Context, badge, role string) ([]models.AssetSummary, error)
}

// Gate deduplicates concurrent list resolutions. Requests carrying the same
// badge, role and refresh generation share a single in-flight resolution.
// When a newer-keyed request is issued, results of older requests complete
// normally but are reported as superseded so callers can discard them.
type Gate struct {
	resolver Resolver
	group    singleflight.Group
	gen      atomic.Uint64

	mu        sync.Mutex
	latestKey string
}

func NewGate(resolver Resolver) *Gate {
	return &Gate{resolver: resolver}
}

// Refresh bumps the generation so the next Load bypasses any in-flight
// resolution and supersedes it.
func (g *Gate) Refresh() {
	g.gen.Add(1)
}

// Load resolves the list for badge/role. The returned bool reports whether
// the result is still current: false means a newer request was issued while
// this one was in flight and the value must not be applied.
func (g *Gate) Load(ctx context.Context, badge, role string) ([]models.AssetSummary, bool, error) {
	key := fmt.Sprintf("%s|%s|%d", badge, role, g.gen.Load())

	g.mu.Lock()
	g.latestKey = key
	g.mu.Unlock()

	v, err, _ := g.group.Do(key, func() (any, error) {
		return g.resolver.Resolve(ctx, badge, role)
	})

	g.mu.Lock()
	current := g.latestKey == key
	g.mu.Unlock()

	if err != nil {
		return nil, current, err
	}
	list, _ := v.([]models.AssetSummary)
	return list, current, nil
}
