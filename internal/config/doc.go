// Package config loads runtime configuration for the sync engine.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend inspection service
//	-t int      per-request HTTP timeout (seconds)
//	-w int      prefetch worker count
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "4s" or integer nanoseconds:
//
//	{
//	  "base_url": "https://inspections.example.com",
//	  "http_timeout": "4s",
//	  "detail_ttl": "720h",
//	  "prefetch_workers": 3
//	}
//
// Primary API
//
//   - type Config                     — all tunables of the engine
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
