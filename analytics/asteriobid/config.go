package asteriobid

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
	"github.com/gofrs/uuid"
	"github.com/spf13/viper"
)

const (
	defaultEndpoint      = "https://endpt.asteriobid.com/endpoint"
	defaultFlushInterval = "1s"
	defaultDwellTime     = "1s"
	defaultStorageSize   = "512KB"
)

// Config is the adapter's enable-time option surface. Pointer fields are
// pass-through: they appear in the outgoing envelope only when the host
// explicitly provided them.
type Config struct {
	PageViewID   string            `mapstructure:"page_view_id"`
	Sampling     int               `mapstructure:"sampling"`
	URL          string            `mapstructure:"url"`
	BundleID     string            `mapstructure:"bundle_id"`
	Version      *string           `mapstructure:"version"`
	TCFCompliant *bool             `mapstructure:"tcf_compliant"`
	AdUnitDict   map[string]string `mapstructure:"ad_unit_dict"`
	CustomParam  map[string]any    `mapstructure:"custom_param"`

	// AdContainers overrides the DOM container id observed for an ad
	// unit; by default the ad unit code doubles as the container id.
	AdContainers map[string]string `mapstructure:"ad_containers"`

	FlushInterval string `mapstructure:"flush_interval"`
	DwellTime     string `mapstructure:"dwell_time"`
	MaxEventCount int    `mapstructure:"max_event_count"`
	StorageSize   string `mapstructure:"storage_size"`

	PageURL     string `mapstructure:"page_url"`
	ReferrerURL string `mapstructure:"referrer_url"`
}

// NewConfigFromViper reads the adapter options from the host
// configuration under the analytics.asteriobid key.
func NewConfigFromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("analytics.asteriobid.sampling", 1)
	v.SetDefault("analytics.asteriobid.flush_interval", defaultFlushInterval)
	v.SetDefault("analytics.asteriobid.dwell_time", defaultDwellTime)
	v.SetDefault("analytics.asteriobid.storage_size", defaultStorageSize)

	var c Config
	if err := v.UnmarshalKey("analytics.asteriobid", &c); err != nil {
		return Config{}, fmt.Errorf("fail to parse analytics.asteriobid configuration: %v", err)
	}
	return c, nil
}

// resolvedConfig is the validated form, with durations and sizes parsed
// and the generated defaults filled in.
type resolvedConfig struct {
	Config
	endpoint      string
	flushInterval time.Duration
	dwell         time.Duration
	storageBytes  int64
}

func (c Config) resolve() (resolvedConfig, error) {
	out := resolvedConfig{Config: c}

	if out.PageViewID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return out, fmt.Errorf("fail to generate page view id: %v", err)
		}
		out.PageViewID = id.String()
	}
	if out.Sampling <= 0 {
		out.Sampling = 1
	}

	out.endpoint = c.URL
	if out.endpoint == "" {
		out.endpoint = defaultEndpoint
	}

	interval := c.FlushInterval
	if interval == "" {
		interval = defaultFlushInterval
	}
	parsed, err := time.ParseDuration(interval)
	if err != nil {
		return out, fmt.Errorf("fail to parse flush_interval: %v", err)
	}
	out.flushInterval = parsed

	dwell := c.DwellTime
	if dwell == "" {
		dwell = defaultDwellTime
	}
	parsed, err = time.ParseDuration(dwell)
	if err != nil {
		return out, fmt.Errorf("fail to parse dwell_time: %v", err)
	}
	out.dwell = parsed

	size := c.StorageSize
	if size == "" {
		size = defaultStorageSize
	}
	bytes, err := units.FromHumanSize(size)
	if err != nil {
		return out, fmt.Errorf("fail to parse storage_size: %v", err)
	}
	out.storageBytes = bytes

	return out, nil
}
