package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromReaderDefaults(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(`log:
  level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Source.ItemCount)
	assert.Equal(t, 24, cfg.Slice.SliceMax)
	assert.Equal(t, 600*time.Millisecond, cfg.Slice.MinLoadTime)
	assert.Equal(t, "mem", cfg.Persist.Store)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromReaderOverridesLatencyAndCategories(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(`
source:
  item_count: 200
  categories: 4
  fetch_latency: 25ms
`))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Source.ItemCount)
	assert.Equal(t, 4, cfg.Source.Categories)
	assert.Equal(t, 25*time.Millisecond, cfg.Source.FetchLatency)
}

func TestValidateRejectsBadSliceMax(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(`slice:
  slice_max: 0
`))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownPersistStore(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(`persist:
  store: redis
`))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}
