package recorder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mstoykov/envconfig"
	"gopkg.in/guregu/null.v3"

	hdrhistogram "github.com/floatdrop/hdrhistogram-go"
)

// Config holds the recorder options next to the histogram parameters every
// interval is built from.
type Config struct {
	Histogram hdrhistogram.Config `json:"histogram"`

	// FlushInterval is how often the active histogram is detached and
	// delivered to the sink.
	FlushInterval time.Duration `json:"flushInterval" envconfig:"HDR_RECORDER_FLUSH_INTERVAL"`

	// SnapshotPath, if set, is the file every flushed interval is encoded to,
	// each flush overwriting the last.
	SnapshotPath null.String `json:"snapshotPath" envconfig:"HDR_RECORDER_SNAPSHOT_PATH"`
}

// NewConfig returns the default configuration: one-second intervals, no
// snapshots, default histogram parameters.
func NewConfig() Config {
	return Config{
		Histogram:     hdrhistogram.NewConfig(),
		FlushInterval: 1 * time.Second,
	}
}

// Apply overlays the set fields of cfg onto c and returns the result.
func (c Config) Apply(cfg Config) Config {
	c.Histogram = c.Histogram.Apply(cfg.Histogram)
	if cfg.FlushInterval != 0 {
		c.FlushInterval = cfg.FlushInterval
	}
	if cfg.SnapshotPath.Valid {
		c.SnapshotPath = cfg.SnapshotPath
	}
	return c
}

// GetConsolidatedConfig combines the defaults with the JSON config and the
// environment, in that order of precedence.
func GetConsolidatedConfig(jsonRawConf json.RawMessage, env map[string]string) (Config, error) {
	result := NewConfig()
	if jsonRawConf != nil {
		jsonConf := Config{}
		if err := json.Unmarshal(jsonRawConf, &jsonConf); err != nil {
			return result, fmt.Errorf("parsing recorder JSON config: %w", err)
		}
		result = result.Apply(jsonConf)
	}

	envConfig := Config{}
	if err := envconfig.Process("", &envConfig, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}); err != nil {
		return result, fmt.Errorf("parsing recorder environment config: %w", err)
	}
	result = result.Apply(envConfig)

	return result, nil
}
