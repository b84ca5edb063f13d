// Package syncer runs the initial per-shift synchronization: profile lookup,
// list acquisition, sequential detail warm-up and cache maintenance. The run
// is deliberately sequential in its detail phase; the backend throttles
// per-client bursts and the list is small enough that simplicity wins.
package syncer

import (
	"context"
	"time"

	"github.com/dmitrijs2005/fireguard/internal/api"
	"github.com/dmitrijs2005/fireguard/internal/cacheindex"
	"github.com/dmitrijs2005/fireguard/internal/common"
	"github.com/dmitrijs2005/fireguard/internal/details"
	"github.com/dmitrijs2005/fireguard/internal/listing"
	"github.com/dmitrijs2005/fireguard/internal/logging"
	"github.com/dmitrijs2005/fireguard/internal/models"
	"github.com/dmitrijs2005/fireguard/internal/store"
	"github.com/dmitrijs2005/fireguard/internal/timex"
)

// Result reports how one sync run went. Per-item detail failures are counted
// here, never escalated to the run error.
type Result struct {
	Total   int
	Success int
	Failed  int
}

type Syncer struct {
	api      *api.Client
	acquirer *listing.Acquirer
	details  *details.DetailStore
	index    *cacheindex.Index
	store    store.Store
	log      logging.Logger

	detailTTL time.Duration
	now       func() time.Time
}

func New(client *api.Client, acq *listing.Acquirer, det *details.DetailStore, idx *cacheindex.Index, st store.Store, log logging.Logger, detailTTL time.Duration) *Syncer {
	if detailTTL <= 0 {
		detailTTL = cacheindex.DefaultTTL
	}
	return &Syncer{
		api:       client,
		acquirer:  acq,
		details:   det,
		index:     idx,
		store:     st,
		log:       log,
		detailTTL: detailTTL,
		now:       time.Now,
	}
}

// RunInitialSync performs the full warm-up for a badge. It fails hard only
// when no asset list can be produced at all, neither fresh nor cached; every
// other problem degrades into counters and log lines.
func (s *Syncer) RunInitialSync(ctx context.Context, badge string, onProgress models.ProgressFunc) (Result, error) {
	report(onProgress, models.SyncProgress{Phase: models.PhasePrepare, Message: "loading profile"})

	role := s.lookupRole(ctx, badge)

	report(onProgress, models.SyncProgress{Phase: models.PhaseList, Message: "acquiring asset list"})

	list, err := s.acquirer.Resolve(ctx, badge, role)
	if err != nil {
		s.log.Warn(ctx, "list acquisition failed", "badge", badge, "err", err)
	}
	if len(list) == 0 {
		return Result{}, common.ErrNoAssetList
	}

	s.backfillTokens(ctx, badge, list)

	res := Result{Total: len(list)}
	for i, item := range list {
		report(onProgress, models.SyncProgress{
			Phase:   models.PhaseDetails,
			Total:   len(list),
			Done:    i,
			Message: item.Code,
		})

		if err := s.syncDetail(ctx, badge, item); err != nil {
			s.log.Debug(ctx, "detail sync failed", "id", item.ID, "err", err)
			res.Failed++
			continue
		}
		res.Success++
	}

	report(onProgress, models.SyncProgress{Phase: models.PhaseFinalize, Total: res.Total, Done: res.Total, Message: "purging stale entries"})

	if purged, err := s.index.PurgeStale(ctx, s.detailTTL); err != nil {
		s.log.Warn(ctx, "stale purge failed", "err", err)
	} else if purged > 0 {
		s.log.Info(ctx, "purged stale details", "count", purged)
	}

	stamp := s.now().Format(time.RFC3339)
	if err := s.store.Set(ctx, store.LastSyncKey(badge), stamp); err != nil {
		s.log.Warn(ctx, "failed to stamp sync time", "badge", badge, "err", err)
	}

	return res, nil
}

// ShouldRunDailySync reports whether no completed sync has been stamped for
// badge today. Unreadable or corrupt stamps count as "never synced".
func (s *Syncer) ShouldRunDailySync(ctx context.Context, badge string) bool {
	raw, err := s.store.Get(ctx, store.LastSyncKey(badge))
	if err != nil {
		return true
	}
	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return timex.StartOfDay(last).Before(timex.StartOfDay(s.now()))
}

// lookupRole pulls the technician role from the profile endpoint. Failures
// fall back to an empty role, which disables the rescue list strategy.
func (s *Syncer) lookupRole(ctx context.Context, badge string) string {
	profile, err := s.api.Profile(ctx, badge)
	if err != nil {
		s.log.Debug(ctx, "profile fetch failed", "badge", badge, "err", err)
		return ""
	}
	for _, field := range []string{"role", "position", "jobTitle"} {
		if v, ok := profile[field].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// backfillTokens fills missing QR tokens from the per-badge token map and
// re-persists the list when anything changed. Best-effort.
func (s *Syncer) backfillTokens(ctx context.Context, badge string, list []models.AssetSummary) {
	missing := false
	for _, item := range list {
		if item.Token == "" {
			missing = true
			break
		}
	}
	if !missing {
		return
	}

	tokens, err := s.api.TokensByBadge(ctx, badge)
	if err != nil || len(tokens) == 0 {
		return
	}

	changed := false
	for i := range list {
		if list[i].Token == "" {
			if tok, ok := tokens[list[i].ID]; ok {
				list[i].Token = tok
				changed = true
			}
		}
	}
	if changed {
		if err := s.acquirer.PersistList(ctx, list); err != nil {
			s.log.Warn(ctx, "failed to re-persist asset list", "err", err)
		}
	}
}

// syncDetail fetches one detail record through the endpoint fallback chain
// and persists it. The order goes from richest to most basic variant.
func (s *Syncer) syncDetail(ctx context.Context, badge string, item models.AssetSummary) error {
	var (
		raw map[string]any
		err error
	)

	if item.Token != "" {
		raw, err = s.api.DetailByToken(ctx, item.Token, badge)
		if err != nil {
			raw, err = s.api.DetailByTokenSafe(ctx, item.Token)
		}
	}
	if item.Token == "" || err != nil {
		raw, err = s.api.DetailWithChecklist(ctx, item.ID, badge)
	}
	if err != nil {
		raw, err = s.api.DetailByID(ctx, item.ID)
	}
	if err != nil {
		return err
	}

	detail, ok := models.DetailFromRaw(raw)
	if !ok {
		return common.ErrMalformedResponse
	}
	if detail.Token == "" {
		detail.Token = item.Token
	}
	return s.details.Save(ctx, detail)
}

func report(fn models.ProgressFunc, p models.SyncProgress) {
	if fn != nil {
		fn(p)
	}
}
