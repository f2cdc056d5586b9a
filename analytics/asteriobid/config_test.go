package asteriobid

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	resolved, err := Config{}.resolve()
	require.NoError(t, err)

	assert.NotEmpty(t, resolved.PageViewID)
	assert.Equal(t, 1, resolved.Sampling)
	assert.Equal(t, defaultEndpoint, resolved.endpoint)
	assert.Equal(t, time.Second, resolved.flushInterval)
	assert.Equal(t, time.Second, resolved.dwell)
	assert.Equal(t, int64(512000), resolved.storageBytes)
}

func TestResolveKeepsExplicitValues(t *testing.T) {
	resolved, err := Config{
		PageViewID:    "pv-1",
		Sampling:      4,
		URL:           "https://collector.example.com/intake",
		FlushInterval: "250ms",
		DwellTime:     "2s",
		StorageSize:   "1MB",
	}.resolve()
	require.NoError(t, err)

	assert.Equal(t, "pv-1", resolved.PageViewID)
	assert.Equal(t, 4, resolved.Sampling)
	assert.Equal(t, "https://collector.example.com/intake", resolved.endpoint)
	assert.Equal(t, 250*time.Millisecond, resolved.flushInterval)
	assert.Equal(t, 2*time.Second, resolved.dwell)
	assert.Equal(t, int64(1000000), resolved.storageBytes)
}

func TestResolveRejectsBadDurations(t *testing.T) {
	_, err := Config{FlushInterval: "soon"}.resolve()
	assert.Error(t, err)

	_, err = Config{DwellTime: "whenever"}.resolve()
	assert.Error(t, err)

	_, err = Config{StorageSize: "huge"}.resolve()
	assert.Error(t, err)
}

func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	v.Set("analytics.asteriobid.sampling", 3)
	v.Set("analytics.asteriobid.bundle_id", "bundle-7")
	v.Set("analytics.asteriobid.ad_containers", map[string]string{"div1": "container1"})

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Sampling)
	assert.Equal(t, "bundle-7", cfg.BundleID)
	assert.Equal(t, map[string]string{"div1": "container1"}, cfg.AdContainers)
	assert.Equal(t, defaultFlushInterval, cfg.FlushInterval)
	assert.Nil(t, cfg.Version)
}
