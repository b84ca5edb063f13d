// Package prefetch warms the detail cache for a technician's assets with a
// small fixed worker pool. Prefetching is best-effort: individual failures
// are counted, never fatal, and a connectivity drop drains the remaining
// work instead of piling up doomed requests.
package prefetch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/fireguard/internal/api"
	"github.com/dmitrijs2005/fireguard/internal/common"
	"github.com/dmitrijs2005/fireguard/internal/connectivity"
	"github.com/dmitrijs2005/fireguard/internal/details"
	"github.com/dmitrijs2005/fireguard/internal/logging"
	"github.com/dmitrijs2005/fireguard/internal/models"
	"github.com/dmitrijs2005/fireguard/internal/store"
)

const DefaultWorkers = 3

// Result reports the outcome of one prefetch pass.
type Result struct {
	Total   int
	Fetched int
	Failed  int
	// Drained counts assets skipped because connectivity dropped mid-pass.
	Drained int
	// Skipped is true when the pass was short-circuited by the done marker.
	Skipped bool
}

type Prefetcher struct {
	api     *api.Client
	details *details.DetailStore
	store   store.Store
	monitor connectivity.Monitor
	log     logging.Logger
	workers int
}

func New(client *api.Client, det *details.DetailStore, st store.Store, monitor connectivity.Monitor, log logging.Logger, workers int) *Prefetcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Prefetcher{api: client, details: det, store: st, monitor: monitor, log: log, workers: workers}
}

// PrefetchAll fetches and persists detail records for ids. A completed pass
// stamps a per-badge done marker; subsequent calls return early unless force
// is set. Workers check connectivity between items and drain the remaining
// queue once offline.
func (p *Prefetcher) PrefetchAll(ctx context.Context, badge string, ids []string, force bool) (Result, error) {
	res := Result{Total: len(ids)}

	if !force {
		if _, err := p.store.Get(ctx, store.PreloadDoneKey(badge)); err == nil {
			res.Skipped = true
			return res, nil
		}
	}
	if len(ids) == 0 {
		return res, nil
	}

	tokens := p.tokenMap(ctx, badge)

	jobs := make(chan string)
	var stopped atomic.Bool
	var fetched, failed, drained atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for id := range jobs {
				if stopped.Load() {
					drained.Add(1)
					continue
				}
				if !p.monitor.Online() {
					stopped.Store(true)
					drained.Add(1)
					continue
				}
				if err := p.fetchOne(gctx, id, tokens[id], badge); err != nil {
					p.log.Debug(gctx, "prefetch failed", "id", id, "err", err)
					failed.Add(1)
					continue
				}
				fetched.Add(1)
			}
			return nil
		})
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	_ = g.Wait()

	res.Fetched = int(fetched.Load())
	res.Failed = int(failed.Load())
	res.Drained = int(drained.Load())

	// only a full pass earns the marker; a drained pass must retry later
	if res.Drained == 0 {
		if err := p.store.Set(ctx, store.PreloadDoneKey(badge), time.Now().Format(time.RFC3339)); err != nil {
			p.log.Warn(ctx, "failed to stamp preload marker", "badge", badge, "err", err)
		}
	}
	return res, nil
}

// tokenMap resolves the id→token map once up front so workers can hit the
// token endpoint. Best-effort: an empty map just forces id-based fetches.
func (p *Prefetcher) tokenMap(ctx context.Context, badge string) map[string]string {
	tokens, err := p.api.TokensByBadge(ctx, badge)
	if err != nil {
		p.log.Debug(ctx, "token map fetch failed", "badge", badge, "err", err)
		return nil
	}
	return tokens
}

func (p *Prefetcher) fetchOne(ctx context.Context, id, token, badge string) error {
	var (
		raw map[string]any
		err error
	)

	if token != "" {
		raw, err = p.api.DetailByToken(ctx, token, badge)
	}
	if token == "" || err != nil {
		raw, err = p.api.DetailByID(ctx, id)
	}
	if err != nil {
		return err
	}

	detail, ok := models.DetailFromRaw(raw)
	if !ok {
		return fmt.Errorf("%w: detail record for %q has no id", common.ErrMalformedResponse, id)
	}
	if detail.Token == "" {
		detail.Token = token
	}
	return p.details.Save(ctx, detail)
}
