// Package listing resolves the canonical asset list for a technician. Two
// acquisition strategies exist: the primary per-technician list, and a rescue
// aggregate-then-detail reconstruction for roles with cross-location access.
// A single-flight gate deduplicates concurrent resolutions.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/fireguard/internal/api"
	"github.com/dmitrijs2005/fireguard/internal/common"
	"github.com/dmitrijs2005/fireguard/internal/details"
	"github.com/dmitrijs2005/fireguard/internal/logging"
	"github.com/dmitrijs2005/fireguard/internal/models"
	"github.com/dmitrijs2005/fireguard/internal/store"
)

// Options bound the rescue strategy's aggregate fetches.
type Options struct {
	ManifestPageSize int
	ManifestMaxPages int
	StatusChunkSize  int
	DaysAhead        int
}

func (o *Options) setDefaults() {
	if o.ManifestPageSize <= 0 {
		o.ManifestPageSize = 300
	}
	if o.ManifestMaxPages <= 0 {
		o.ManifestMaxPages = 50
	}
	if o.StatusChunkSize <= 0 {
		o.StatusChunkSize = 200
	}
	if o.DaysAhead <= 0 {
		o.DaysAhead = 30
	}
}

type Acquirer struct {
	api     *api.Client
	store   store.Store
	details *details.DetailStore
	log     logging.Logger
	opts    Options
}

func NewAcquirer(client *api.Client, st store.Store, det *details.DetailStore, log logging.Logger, opts Options) *Acquirer {
	opts.setDefaults()
	return &Acquirer{api: client, store: st, details: det, log: log, opts: opts}
}

// Resolve returns the asset list for badge/role. When the rescue role is
// active both strategies run concurrently and a non-empty primary result
// wins; otherwise only the primary strategy runs. Request-level failures are
// swallowed into empty strategy results, and an empty resolution falls back
// to the last persisted list so a transient failure never blanks the screen.
func (a *Acquirer) Resolve(ctx context.Context, badge, role string) ([]models.AssetSummary, error) {
	var primary, rescue []models.AssetSummary

	if models.IsRescueRole(role) {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			primary = a.primary(gctx, badge)
			return nil
		})
		g.Go(func() error {
			rescue = a.rescueList(gctx, badge)
			return nil
		})
		_ = g.Wait()
	} else {
		primary = a.primary(ctx, badge)
	}

	resolved := primary
	if len(resolved) == 0 {
		resolved = rescue
	}

	if len(resolved) > 0 {
		if err := a.PersistList(ctx, resolved); err != nil {
			a.log.Warn(ctx, "failed to persist asset list", "err", err)
		}
		return resolved, nil
	}

	return a.Cached(ctx)
}

// Primary fetches the direct per-technician list. Unlike Resolve it does not
// swallow the fetch error: the orchestrator needs to tell a degraded fetch
// apart from a genuinely empty assignment.
func (a *Acquirer) Primary(ctx context.Context, badge string) ([]models.AssetSummary, error) {
	raws, err := a.api.Assets(ctx, badge)
	if err != nil {
		return nil, err
	}
	return mapSummaries(raws), nil
}

func (a *Acquirer) primary(ctx context.Context, badge string) []models.AssetSummary {
	list, err := a.Primary(ctx, badge)
	if err != nil {
		a.log.Debug(ctx, "primary list strategy failed", "err", err)
		return nil
	}
	return list
}

// rescueList reconstructs a list for broad-access roles. Cheapest source
// first: details already cached under token keys. Failing that, the full
// aggregate pass: paginate the token manifest, batch-fetch details, persist
// them, and best-effort enrich due dates.
func (a *Acquirer) rescueList(ctx context.Context, badge string) []models.AssetSummary {
	if cached, err := a.details.CachedByToken(ctx); err == nil && len(cached) > 0 {
		list := make([]models.AssetSummary, 0, len(cached))
		for _, d := range cached {
			list = append(list, d.AssetSummary)
		}
		return list
	}

	tokens := a.collectTokens(ctx, badge)
	if len(tokens) == 0 {
		return nil
	}

	raws, err := a.api.OfflineDetails(ctx, tokens)
	if err != nil {
		a.log.Debug(ctx, "rescue batch detail fetch failed", "err", err)
		return nil
	}

	var list []models.AssetSummary
	for _, raw := range raws {
		detail, ok := models.DetailFromRaw(raw)
		if !ok {
			continue
		}
		if err := a.details.Save(ctx, detail); err != nil {
			a.log.Warn(ctx, "failed to persist rescue detail", "id", detail.ID, "err", err)
		}
		list = append(list, detail.AssetSummary)
	}

	a.enrichDueDates(ctx, list)
	return list
}

func (a *Acquirer) collectTokens(ctx context.Context, badge string) []string {
	var tokens []string
	for page := 1; page <= a.opts.ManifestMaxPages; page++ {
		batch, err := a.api.OfflineManifest(ctx, badge, a.opts.DaysAhead, page, a.opts.ManifestPageSize)
		if err != nil {
			a.log.Debug(ctx, "manifest page fetch failed", "page", page, "err", err)
			break
		}
		tokens = append(tokens, batch...)
		if len(batch) < a.opts.ManifestPageSize {
			break
		}
	}
	return tokens
}

// enrichDueDates merges due-date information into list in place. Entirely
// best-effort: a failed chunk is skipped, never reported.
func (a *Acquirer) enrichDueDates(ctx context.Context, list []models.AssetSummary) {
	byID := make(map[string]int, len(list))
	ids := make([]string, 0, len(list))
	for i, s := range list {
		byID[s.ID] = i
		ids = append(ids, s.ID)
	}

	for start := 0; start < len(ids); start += a.opts.StatusChunkSize {
		end := start + a.opts.StatusChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		statuses, err := a.api.StatusLiteBatch(ctx, ids[start:end])
		if err != nil {
			continue
		}
		for id, raw := range statuses {
			i, ok := byID[id]
			if !ok {
				continue
			}
			if s, ok := models.SummaryFromRaw(raw); ok {
				if !s.NextDueDate.IsZero() {
					list[i].NextDueDate = s.NextDueDate
				}
				if !s.LastInspectionDate.IsZero() {
					list[i].LastInspectionDate = s.LastInspectionDate
				}
			}
		}
	}
}

// PersistList stores the list wholesale under the list cache key.
func (a *Acquirer) PersistList(ctx context.Context, list []models.AssetSummary) error {
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode asset list: %w", err)
	}
	return a.store.Set(ctx, store.ListKey(), string(b))
}

// Cached returns the last persisted list, or an empty list when none exists.
func (a *Acquirer) Cached(ctx context.Context) ([]models.AssetSummary, error) {
	raw, err := a.store.Get(ctx, store.ListKey())
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var list []models.AssetSummary
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return list, nil
}

func mapSummaries(raws []map[string]any) []models.AssetSummary {
	list := make([]models.AssetSummary, 0, len(raws))
	for _, raw := range raws {
		if s, ok := models.SummaryFromRaw(raw); ok {
			list = append(list, s)
		}
	}
	return list
}
