// Package config loads the console configuration: defaults, then an
// optional YAML file, then CLINICALQ_* environment variables. The merged
// result is checked against an embedded JSON Schema before the semantic
// validation that mirrors the engine's own config rules.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/clinicalq/console/internal/protocol"
)

const envPrefix = "CLINICALQ_"

// SessionConfig is the immutable parameter set one session runs with. It
// is passed by value into the controller.
type SessionConfig struct {
	Mode                   string         `koanf:"mode" json:"mode"`
	EpochSeconds           int            `koanf:"epoch_seconds" json:"epoch_seconds"`
	RepositionSeconds      int            `koanf:"reposition_seconds" json:"reposition_seconds"`
	RepositionMode         string         `koanf:"reposition_mode" json:"reposition_mode"`
	CueLeadSeconds         int            `koanf:"cue_lead_seconds" json:"cue_lead_seconds"`
	SamplingRate           int            `koanf:"sampling_rate" json:"sampling_rate"`
	FastMode               bool           `koanf:"fast_mode" json:"fast_mode"`
	LiveBandpower          bool           `koanf:"live_bandpower" json:"live_bandpower"`
	LiveWindowSeconds      float64        `koanf:"live_window_seconds" json:"live_window_seconds"`
	IncludeFrontalBaseline bool           `koanf:"include_frontal_baseline" json:"include_frontal_baseline"`
	Locations              []string       `koanf:"locations" json:"locations"`
	Channels               map[string]int `koanf:"channels" json:"channels"`
	SequentialOrder        []string       `koanf:"sequential_order" json:"sequential_order"`
}

// EngineConfig describes how to launch the external acquisition engine.
type EngineConfig struct {
	// Command is the engine argv; the output path is appended as
	// "--output <path>" and the config as "--config <path>".
	Command          []string `koanf:"command" json:"command"`
	WorkDir          string   `koanf:"work_dir" json:"work_dir"`
	OutputDir        string   `koanf:"output_dir" json:"output_dir"`
	StopGraceSeconds int      `koanf:"stop_grace_seconds" json:"stop_grace_seconds"`
}

// RelayConfig controls the optional observer websocket relay.
type RelayConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	Addr    string `koanf:"addr" json:"addr"`
}

// CueConfig controls audio cueing.
type CueConfig struct {
	Enabled        bool `koanf:"enabled" json:"enabled"`
	BeepIntervalMS int  `koanf:"beep_interval_ms" json:"beep_interval_ms"`
}

// LogConfig controls the zap file logger. The TUI owns stdout, so logs
// always go to a file.
type LogConfig struct {
	File  string `koanf:"file" json:"file"`
	Level string `koanf:"level" json:"level"`
}

// Config is the full console configuration.
type Config struct {
	Session SessionConfig `koanf:"session" json:"session"`
	Engine  EngineConfig  `koanf:"engine" json:"engine"`
	Relay   RelayConfig   `koanf:"relay" json:"relay"`
	Cues    CueConfig     `koanf:"cues" json:"cues"`
	Log     LogConfig     `koanf:"log" json:"log"`
}

// Default returns the built-in configuration, matching the engine's own
// starter defaults.
func Default() Config {
	return Config{
		Session: SessionConfig{
			Mode:                   "sequential",
			EpochSeconds:           15,
			RepositionSeconds:      20,
			RepositionMode:         "timer",
			CueLeadSeconds:         3,
			SamplingRate:           250,
			FastMode:               false,
			LiveBandpower:          true,
			LiveWindowSeconds:      2.0,
			IncludeFrontalBaseline: true,
			Locations:              protocol.Locations(),
			Channels:               protocol.DefaultChannels(),
			SequentialOrder:        protocol.SequentialOrder(),
		},
		Engine: EngineConfig{
			Command:          []string{"clinicalq-engine", "run"},
			OutputDir:        "results",
			StopGraceSeconds: 5,
		},
		Relay: RelayConfig{Enabled: false, Addr: "127.0.0.1:8471"},
		Cues:  CueConfig{Enabled: true, BeepIntervalMS: 180},
		Log:   LogConfig{File: "clinicalq.log", Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// it exists; an explicit nonexistent path is an error only when path was
// given), and CLINICALQ_* environment variables. SESSION__MODE-style
// double underscores address nested keys.
func Load(path string, pathExplicit bool) (Config, error) {
	cfg := Default()

	k := koanf.New(".")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		} else if pathExplicit {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	// The schema checks the file's shape; environment overrides arrive as
	// strings and are coerced during struct unmarshalling instead.
	if err := validateSchema(k.Raw()); err != nil {
		return cfg, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("config: reading environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	cfg.clamp()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// clamp applies the documented bounds that are corrected rather than
// rejected.
func (c *Config) clamp() {
	if c.Session.CueLeadSeconds < 0 {
		c.Session.CueLeadSeconds = 0
	}
	if c.Session.CueLeadSeconds > 10 {
		c.Session.CueLeadSeconds = 10
	}
}

// Validate applies the semantic rules the engine enforces on its side:
// known modes, complete and collision-free channel mapping, and a
// sequential order covering every required site exactly once.
func (c Config) Validate() error {
	s := c.Session

	switch s.Mode {
	case "sequential", "simultaneous":
	default:
		return fmt.Errorf("config: unsupported mode %q (use sequential or simultaneous)", s.Mode)
	}

	switch s.RepositionMode {
	case "timer", "manual":
	default:
		return fmt.Errorf("config: unsupported reposition_mode %q (use timer or manual)", s.RepositionMode)
	}

	if s.EpochSeconds <= 0 {
		return fmt.Errorf("config: epoch_seconds must be positive, got %d", s.EpochSeconds)
	}

	seen := make(map[int]string, len(s.Locations))
	for _, loc := range s.Locations {
		if !protocol.KnownLocation(loc) {
			return fmt.Errorf("config: unknown location %q", loc)
		}
		ch, ok := s.Channels[loc]
		if !ok {
			return fmt.Errorf("config: missing channel mapping for %s", loc)
		}
		if ch < 1 {
			return fmt.Errorf("config: invalid channel index %d for %s (must be >= 1)", ch, loc)
		}
		if other, dup := seen[ch]; dup {
			return fmt.Errorf("config: %s and %s both map to channel %d", other, loc, ch)
		}
		seen[ch] = loc
	}

	if s.Mode == "sequential" {
		if len(s.SequentialOrder) != len(s.Locations) {
			return fmt.Errorf("config: sequential_order must list all %d sites exactly once", len(s.Locations))
		}
		want := make(map[string]bool, len(s.Locations))
		for _, loc := range s.Locations {
			want[loc] = true
		}
		for _, loc := range s.SequentialOrder {
			if !want[loc] {
				return fmt.Errorf("config: sequential_order contains %q which is not a configured location", loc)
			}
			delete(want, loc)
		}
		if len(want) > 0 {
			return fmt.Errorf("config: sequential_order must record all configured sites exactly once")
		}
	}

	if len(c.Engine.Command) == 0 {
		return fmt.Errorf("config: engine.command must not be empty")
	}

	return nil
}
