package config

import "time"

// Config holds runtime settings for the sync engine.
//
// Fields:
//   - BaseURL: root URL of the backend inspection service.
//   - HTTPTimeout: per-request budget for list/detail fetches; a request that
//     exceeds it is treated as an empty result, not an error.
//   - DetailTTL: maximum age of a cached detail record before purge.
//   - PrefetchWorkers: size of the detail-prefetch worker pool.
//   - ManifestPageSize / ManifestMaxPages: pagination bounds for the rescue
//     token manifest.
//   - StatusChunkSize: ids per request for the due-date enrichment lookup.
//   - FlushRounds / FlushRoundDelay: bounds for offline queue replay.
//   - ProbeInterval: how often the connectivity monitor probes the backend.
type Config struct {
	BaseURL          string
	HTTPTimeout      time.Duration
	DetailTTL        time.Duration
	PrefetchWorkers  int
	ManifestPageSize int
	ManifestMaxPages int
	StatusChunkSize  int
	FlushRounds      int
	FlushRoundDelay  time.Duration
	ProbeInterval    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8080"
	c.HTTPTimeout = 4 * time.Second
	c.DetailTTL = 30 * 24 * time.Hour
	c.PrefetchWorkers = 3
	c.ManifestPageSize = 300
	c.ManifestMaxPages = 50
	c.StatusChunkSize = 200
	c.FlushRounds = 6
	c.FlushRoundDelay = 500 * time.Millisecond
	c.ProbeInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
