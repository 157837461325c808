package recurring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Config{}.withDefaults())

	custom := Config{VoteShare: 0.6, Bands: []Band{{Frequency: Monthly, MinDays: 28, MaxDays: 31}}}.withDefaults()
	assert.InDelta(t, 0.6, custom.VoteShare, 1e-9)
	assert.Len(t, custom.Bands, 1)
	assert.Equal(t, DefaultConfig().MinSplitEntries, custom.MinSplitEntries)
}

func TestConfig_YAML(t *testing.T) {
	src := `
cluster_tolerance: 0.2
bands:
  - frequency: weekly
    min_days: 6
    max_days: 8
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(src), &cfg))
	cfg = cfg.withDefaults()

	assert.InDelta(t, 0.2, cfg.ClusterTolerance, 1e-9)
	assert.Equal(t, []Band{{Frequency: Weekly, MinDays: 6, MaxDays: 8}}, cfg.Bands)
	assert.InDelta(t, DefaultConfig().SplitSpreadFloor, cfg.SplitSpreadFloor, 1e-9)
}
