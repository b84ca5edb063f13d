package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/fireguard/internal/flagx"
	"github.com/dmitrijs2005/fireguard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "4s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	BaseURL          string         `json:"base_url"`
	HTTPTimeout      timex.Duration `json:"http_timeout"`
	DetailTTL        timex.Duration `json:"detail_ttl"`
	PrefetchWorkers  int            `json:"prefetch_workers"`
	ManifestPageSize int            `json:"manifest_page_size"`
	ManifestMaxPages int            `json:"manifest_max_pages"`
	StatusChunkSize  int            `json:"status_chunk_size"`
	FlushRounds      int            `json:"flush_rounds"`
	FlushRoundDelay  timex.Duration `json:"flush_round_delay"`
	ProbeInterval    timex.Duration `json:"probe_interval"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Zero values in the JSON are treated as "not set" and leave the current
// Config value in place, so a partial file only overrides what it names.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.HTTPTimeout.Duration != 0 {
		cfg.HTTPTimeout = time.Duration(jc.HTTPTimeout.Duration)
	}
	if jc.DetailTTL.Duration != 0 {
		cfg.DetailTTL = time.Duration(jc.DetailTTL.Duration)
	}
	if jc.PrefetchWorkers != 0 {
		cfg.PrefetchWorkers = jc.PrefetchWorkers
	}
	if jc.ManifestPageSize != 0 {
		cfg.ManifestPageSize = jc.ManifestPageSize
	}
	if jc.ManifestMaxPages != 0 {
		cfg.ManifestMaxPages = jc.ManifestMaxPages
	}
	if jc.StatusChunkSize != 0 {
		cfg.StatusChunkSize = jc.StatusChunkSize
	}
	if jc.FlushRounds != 0 {
		cfg.FlushRounds = jc.FlushRounds
	}
	if jc.FlushRoundDelay.Duration != 0 {
		cfg.FlushRoundDelay = time.Duration(jc.FlushRoundDelay.Duration)
	}
	if jc.ProbeInterval.Duration != 0 {
		cfg.ProbeInterval = time.Duration(jc.ProbeInterval.Duration)
	}
}
