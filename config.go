package hdrhistogram

import (
	"encoding/json"
	"fmt"

	"github.com/mstoykov/envconfig"
	"gopkg.in/guregu/null.v3"
)

// Config is the JSON- and environment-facing mirror of the three
// construction parameters. Unset fields fall back to the defaults from
// NewConfig.
type Config struct {
	LowestDiscernibleValue null.Int `json:"lowestDiscernibleValue" envconfig:"HDR_LOWEST_DISCERNIBLE_VALUE"`
	HighestTrackableValue  null.Int `json:"highestTrackableValue" envconfig:"HDR_HIGHEST_TRACKABLE_VALUE"`
	SignificantDigits      null.Int `json:"significantDigits" envconfig:"HDR_SIGNIFICANT_DIGITS"`
}

// NewConfig returns the default configuration: microsecond latencies up to
// one hour, three significant digits.
func NewConfig() Config {
	return Config{
		LowestDiscernibleValue: null.NewInt(1, false),
		HighestTrackableValue:  null.NewInt(3600000000, false),
		SignificantDigits:      null.NewInt(3, false),
	}
}

// Apply overlays the set fields of cfg onto c and returns the result.
func (c Config) Apply(cfg Config) Config {
	if cfg.LowestDiscernibleValue.Valid {
		c.LowestDiscernibleValue = cfg.LowestDiscernibleValue
	}
	if cfg.HighestTrackableValue.Valid {
		c.HighestTrackableValue = cfg.HighestTrackableValue
	}
	if cfg.SignificantDigits.Valid {
		c.SignificantDigits = cfg.SignificantDigits
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
			return result, fmt.Errorf("parsing histogram JSON config: %w", err)
		}
		result = result.Apply(jsonConf)
	}

	envConfig := Config{}
	if err := envconfig.Process("", &envConfig, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}); err != nil {
		return result, fmt.Errorf("parsing histogram environment config: %w", err)
	}
	result = result.Apply(envConfig)

	return result, nil
}

// NewFromConfig builds a histogram from cfg overlaid on the defaults.
func NewFromConfig(cfg Config) (*Histogram, error) {
	c := NewConfig().Apply(cfg)
	return New(
		c.LowestDiscernibleValue.Int64,
		c.HighestTrackableValue.Int64,
		int(c.SignificantDigits.Int64),
	)
}
