package stack

import (
	"errors"
	"time"

	"gopkg.in/yaml.v3"
)

// Config-range bounds. These were compile-time constants in the original
// implementation; here they are tunable runtime values, and FixBrokenTLVs
// is a per-call tlv.ParseOptions field rather than a compile-time flag.
const (
	DiscoveryIntervalMin = 1 * time.Second
	DiscoveryIntervalMax = 1 * time.Hour

	GCIntervalMin = 1 * time.Second
	GCIntervalMax = 1 * time.Hour
)

// Config defines the tunables a Stack is built from. The zero value is
// invalid; call Valid (or DefaultConfig) before use.
type Config struct {
	// DiscoveryInterval paces the periodic topology-discovery CMDU send.
	DiscoveryInterval time.Duration

	// GCInterval paces RunGarbageCollector sweeps over stale devices.
	GCInterval time.Duration

	// FixBrokenTLVs relaxes TLV parsing to tolerate known-malformed
	// vendor encodings (tlv.ParseOptions.FixBrokenTLVs), the run-time
	// equivalent of the original's FIX_BROKEN_TLVS compile flag.
	FixBrokenTLVs bool
}

// Valid fills unset fields with their defaults and range-checks the rest.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("stack: nil config")
	}
	if c.DiscoveryInterval == 0 {
		c.DiscoveryInterval = 10 * time.Second
	} else if c.DiscoveryInterval < DiscoveryIntervalMin || c.DiscoveryInterval > DiscoveryIntervalMax {
		return errors.New("stack: DiscoveryInterval out of [1s, 1h]")
	}
	if c.GCInterval == 0 {
		c.GCInterval = 30 * time.Second
	} else if c.GCInterval < GCIntervalMin || c.GCInterval > GCIntervalMax {
		return errors.New("stack: GCInterval out of [1s, 1h]")
	}
	return nil
}

// DefaultConfig returns a Config with every field at its default.
func DefaultConfig() Config {
	c := Config{}
	_ = c.Valid()
	return c
}

// configFragment is the subset of Config that LoadConfigYAML accepts,
// using plain durations (e.g. "10s") rather than requiring callers to hand
// marshal time.Duration.
type configFragment struct {
	DiscoveryInterval string `yaml:"discovery_interval"`
	GCInterval        string `yaml:"gc_interval"`
	FixBrokenTLVs     bool   `yaml:"fix_broken_tlvs"`
}

// LoadConfigYAML parses a YAML config fragment into a Config, applying
// Valid's defaults/range checks to the result. This module does not own
// config *loading* (locating/watching a file is out of scope); it only
// owns parsing the fragment's primitives.
func LoadConfigYAML(data []byte) (*Config, error) {
	var frag configFragment
	if err := yaml.Unmarshal(data, &frag); err != nil {
		return nil, err
	}
	cfg := &Config{FixBrokenTLVs: frag.FixBrokenTLVs}
	if frag.DiscoveryInterval != "" {
		d, err := time.ParseDuration(frag.DiscoveryInterval)
		if err != nil {
			return nil, err
		}
		cfg.DiscoveryInterval = d
	}
	if frag.GCInterval != "" {
		d, err := time.ParseDuration(frag.GCInterval)
		if err != nil {
			return nil, err
		}
		cfg.GCInterval = d
	}
	if err := cfg.Valid(); err != nil {
		return nil, err
	}
	return cfg, nil
}
