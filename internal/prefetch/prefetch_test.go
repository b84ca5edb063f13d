package prefetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fireguard/internal/api"
	"github.com/dmitrijs2005/fireguard/internal/cacheindex"
	"github.com/dmitrijs2005/fireguard/internal/connectivity"
	"github.com/dmitrijs2005/fireguard/internal/details"
	"github.com/dmitrijs2005/fireguard/internal/fetch"
	"github.com/dmitrijs2005/fireguard/internal/logging"
	"github.com/dmitrijs2005/fireguard/internal/store"
)

type fixture struct {
	prefetcher *Prefetcher
	store      *store.MemoryStore
	details    *details.DetailStore
	monitor    *connectivity.Static
}

func newFixture(t *testing.T, handler http.Handler, workers int) *fixture {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	monitor := connectivity.NewStatic(true)
	f := fetch.NewClient(srv.Client(), monitor, 4*time.Second)
	client := api.NewClient(srv.URL, f)

	st := store.NewMemoryStore()
	det := details.NewDetailStore(st, cacheindex.New(st, logging.NewNop()))

	return &fixture{
		prefetcher: New(client, det, st, monitor, logging.NewNop(), workers),
		store:      st,
		details:    det,
		monitor:    monitor,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestPrefetchAllFetchesAndStampsMarker(t *testing.T) {
	var byToken, byID atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/assets/tokens-by-badge/B100", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]string{"A1": "tok-1"})
	})
	mux.HandleFunc("/assets/detail/by-token", func(w http.ResponseWriter, r *http.Request) {
		byToken.Add(1)
		writeJSON(t, w, map[string]any{"id": "A1", "code": "EXT-001", "token": "tok-1"})
	})
	mux.HandleFunc("/assets/detail", func(w http.ResponseWriter, r *http.Request) {
		byID.Add(1)
		id := r.URL.Query().Get("id")
		writeJSON(t, w, map[string]any{"id": id, "code": "EXT-" + id})
	})

	fx := newFixture(t, mux, 2)

	res, err := fx.prefetcher.PrefetchAll(context.Background(), "B100", []string{"A1", "A2"}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 0, res.Failed)
	assert.False(t, res.Skipped)

	// A1 had a token, A2 fell back to the id endpoint
	assert.Equal(t, int64(1), byToken.Load())
	assert.Equal(t, int64(1), byID.Load())

	d, err := fx.details.GetByToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "A1", d.ID)

	_, err = fx.store.Get(context.Background(), store.PreloadDoneKey("B100"))
	require.NoError(t, err)
}

func TestPrefetchAllSkipsWhenMarkerPresent(t *testing.T) {
	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, map[string]any{})
	})

	fx := newFixture(t, mux, 1)
	require.NoError(t, fx.store.Set(context.Background(), store.PreloadDoneKey("B100"), "1"))

	res, err := fx.prefetcher.PrefetchAll(context.Background(), "B100", []string{"A1"}, false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, int64(0), calls.Load())
}

func TestPrefetchAllForceIgnoresMarker(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/tokens-by-badge/B100", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]string{})
	})
	mux.HandleFunc("/assets/detail", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"id": r.URL.Query().Get("id")})
	})

	fx := newFixture(t, mux, 1)
	require.NoError(t, fx.store.Set(context.Background(), store.PreloadDoneKey("B100"), "1"))

	res, err := fx.prefetcher.PrefetchAll(context.Background(), "B100", []string{"A1"}, true)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.Fetched)
}

func TestPrefetchAllCountsFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/tokens-by-badge/B100", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]string{})
	})
	mux.HandleFunc("/assets/detail", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "A2" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		writeJSON(t, w, map[string]any{"id": id})
	})

	fx := newFixture(t, mux, 1)

	res, err := fx.prefetcher.PrefetchAll(context.Background(), "B100", []string{"A1", "A2", "A3"}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Failed)

	// individual failures do not block the marker
	_, err = fx.store.Get(context.Background(), store.PreloadDoneKey("B100"))
	require.NoError(t, err)
}

func TestPrefetchAllDrainsWhenOffline(t *testing.T) {
	var detailCalls atomic.Int64

	fx := &fixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/tokens-by-badge/B100", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]string{})
	})
	mux.HandleFunc("/assets/detail", func(w http.ResponseWriter, r *http.Request) {
		detailCalls.Add(1)
		// simulate the network dropping after the first detail fetch
		fx.monitor.SetOnline(false)
		writeJSON(t, w, map[string]any{"id": r.URL.Query().Get("id")})
	})

	*fx = *newFixture(t, mux, 1)

	res, err := fx.prefetcher.PrefetchAll(context.Background(), "B100", []string{"A1", "A2", "A3"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 2, res.Drained)
	assert.Equal(t, int64(1), detailCalls.Load())

	// a drained pass must not stamp the done marker
	_, err = fx.store.Get(context.Background(), store.PreloadDoneKey("B100"))
	require.Error(t, err)
}
