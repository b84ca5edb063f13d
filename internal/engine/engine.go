// Package engine assembles the sync subsystem from configuration: durable
// store, connectivity monitor, API client and the services on top of them.
// Embedding applications construct one Engine per session and call into the
// exposed services directly.
package engine

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/fireguard/internal/api"
	"github.com/dmitrijs2005/fireguard/internal/cacheindex"
	"github.com/dmitrijs2005/fireguard/internal/config"
	"github.com/dmitrijs2005/fireguard/internal/connectivity"
	"github.com/dmitrijs2005/fireguard/internal/details"
	"github.com/dmitrijs2005/fireguard/internal/fetch"
	"github.com/dmitrijs2005/fireguard/internal/listing"
	"github.com/dmitrijs2005/fireguard/internal/logging"
	"github.com/dmitrijs2005/fireguard/internal/prefetch"
	"github.com/dmitrijs2005/fireguard/internal/queue"
	"github.com/dmitrijs2005/fireguard/internal/store"
	"github.com/dmitrijs2005/fireguard/internal/syncer"
)

// DefaultDatabaseFile is where the engine keeps its cache when no store is
// injected.
const DefaultDatabaseFile = "fireguard.db"

type Engine struct {
	Store      store.Store
	Monitor    connectivity.Monitor
	API        *api.Client
	Details    *details.DetailStore
	Index      *cacheindex.Index
	Acquirer   *listing.Acquirer
	Gate       *listing.Gate
	Prefetcher *prefetch.Prefetcher
	Syncer     *syncer.Syncer
	Queue      *queue.Queue

	log   logging.Logger
	probe *connectivity.ProbeMonitor
	db    *store.SQLiteStore
}

// New opens the SQLite-backed store and wires the full engine. Connectivity
// is derived from periodic probes against the backend health endpoint; call
// Run to start probing.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*Engine, error) {
	st, err := store.Open(ctx, DefaultDatabaseFile)
	if err != nil {
		log.Error(ctx, "error initializing database", "err", err)
		return nil, err
	}

	pinger := api.NewPinger(cfg.BaseURL, &http.Client{Timeout: cfg.HTTPTimeout})
	probe := connectivity.NewProbeMonitor(pinger, cfg.ProbeInterval, log)

	e := NewWithStore(cfg, st, probe, log)
	e.probe = probe
	e.db = st
	return e, nil
}

// NewWithStore wires the engine on an injected store and monitor. Tests and
// embedders that manage their own persistence use this constructor.
func NewWithStore(cfg *config.Config, st store.Store, monitor connectivity.Monitor, log logging.Logger) *Engine {
	f := fetch.NewClient(nil, monitor, cfg.HTTPTimeout)
	client := api.NewClient(cfg.BaseURL, f)

	idx := cacheindex.New(st, log)
	det := details.NewDetailStore(st, idx)

	acq := listing.NewAcquirer(client, st, det, log, listing.Options{
		ManifestPageSize: cfg.ManifestPageSize,
		ManifestMaxPages: cfg.ManifestMaxPages,
		StatusChunkSize:  cfg.StatusChunkSize,
	})

	return &Engine{
		Store:      st,
		Monitor:    monitor,
		API:        client,
		Details:    det,
		Index:      idx,
		Acquirer:   acq,
		Gate:       listing.NewGate(acq),
		Prefetcher: prefetch.New(client, det, st, monitor, log, cfg.PrefetchWorkers),
		Syncer:     syncer.New(client, acq, det, idx, st, log, cfg.DetailTTL),
		Queue:      queue.New(st, monitor, client, log, cfg.FlushRounds, cfg.FlushRoundDelay),
		log:        log,
	}
}

// Run drives the background work until ctx is cancelled: the connectivity
// probe loop, and a queue flush every time connectivity comes back.
func (e *Engine) Run(ctx context.Context) {
	if e.probe != nil {
		go e.probe.Run(ctx)
	}

	transitions := e.Monitor.Subscribe()
	for {
		select {
		case online := <-transitions:
			if !online {
				continue
			}
			remaining, err := e.Queue.Flush(ctx)
			if err != nil {
				e.log.Warn(ctx, "queue flush failed", "err", err)
				continue
			}
			if remaining > 0 {
				e.log.Info(ctx, "queue flush left requests pending", "remaining", remaining)
			}

		case <-ctx.Done():
			return
		}
	}
}

// Close releases the store when the engine owns it.
func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}
