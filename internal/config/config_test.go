package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.BaseURL)
	assert.Equal(t, 4*time.Second, c.HTTPTimeout)
	assert.Equal(t, 30*24*time.Hour, c.DetailTTL)
	assert.Equal(t, 3, c.PrefetchWorkers)
	assert.Equal(t, 300, c.ManifestPageSize)
	assert.Equal(t, 50, c.ManifestMaxPages)
	assert.Equal(t, 200, c.StatusChunkSize)
	assert.Equal(t, 6, c.FlushRounds)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, 4*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 6, cfg.FlushRounds)
}
