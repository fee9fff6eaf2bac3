package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
	if cfg.Session.Mode != "sequential" {
		t.Errorf("default mode = %q, want sequential", cfg.Session.Mode)
	}
	if cfg.Session.EpochSeconds != 15 {
		t.Errorf("default epoch_seconds = %d, want 15", cfg.Session.EpochSeconds)
	}
}

func TestLoadMissingImplicitFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Session.Mode != "sequential" {
		t.Errorf("mode = %q, want default", cfg.Session.Mode)
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true); err == nil {
		t.Error("explicit missing file should error")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clinicalq.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
session:
  mode: simultaneous
  epoch_seconds: 30
  reposition_mode: manual
cues:
  enabled: false
`)
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Session.Mode != "simultaneous" {
		t.Errorf("mode = %q, want simultaneous", cfg.Session.Mode)
	}
	if cfg.Session.EpochSeconds != 30 {
		t.Errorf("epoch_seconds = %d, want 30", cfg.Session.EpochSeconds)
	}
	if cfg.Session.RepositionMode != "manual" {
		t.Errorf("reposition_mode = %q, want manual", cfg.Session.RepositionMode)
	}
	if cfg.Cues.Enabled {
		t.Error("cues.enabled = true, want false")
	}
	// Untouched sections keep defaults.
	if cfg.Engine.OutputDir != "results" {
		t.Errorf("engine.output_dir = %q, want default", cfg.Engine.OutputDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CLINICALQ_SESSION__EPOCH_SECONDS", "45")
	t.Setenv("CLINICALQ_LOG__LEVEL", "debug")

	cfg, err := Load("", false)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Session.EpochSeconds != 45 {
		t.Errorf("epoch_seconds = %d, want 45 from env", cfg.Session.EpochSeconds)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug from env", cfg.Log.Level)
	}
}

func TestLoadClampsCueLead(t *testing.T) {
	path := writeConfig(t, "session:\n  cue_lead_seconds: 60\n")
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Session.CueLeadSeconds != 10 {
		t.Errorf("cue_lead_seconds = %d, want clamped to 10", cfg.Session.CueLeadSeconds)
	}
}

func TestLoadRejectsInvalidShape(t *testing.T) {
	path := writeConfig(t, "session:\n  mode: 42\n")
	if _, err := Load(path, true); err == nil {
		t.Error("numeric mode should fail schema validation")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Session.Mode = "parallel" }},
		{"bad reposition mode", func(c *Config) { c.Session.RepositionMode = "hope" }},
		{"zero epoch seconds", func(c *Config) { c.Session.EpochSeconds = 0 }},
		{"unknown location", func(c *Config) { c.Session.Locations = []string{"Pz"} }},
		{"missing channel", func(c *Config) { delete(c.Session.Channels, "Cz") }},
		{"zero channel", func(c *Config) { c.Session.Channels["Cz"] = 0 }},
		{"duplicate channel", func(c *Config) { c.Session.Channels["Cz"] = c.Session.Channels["O1"] }},
		{"short sequential order", func(c *Config) { c.Session.SequentialOrder = []string{"Cz"} }},
		{"foreign sequential order", func(c *Config) {
			c.Session.SequentialOrder = []string{"Pz", "Cz", "Fz", "F3", "F4"}
		}},
		{"duplicate sequential order", func(c *Config) {
			c.Session.SequentialOrder = []string{"Cz", "Cz", "Fz", "F3", "F4"}
		}},
		{"empty engine command", func(c *Config) { c.Engine.Command = nil }},
	}

	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
		}
	}
}

func TestValidateSimultaneousSkipsOrderCheck(t *testing.T) {
	cfg := Default()
	cfg.Session.Mode = "simultaneous"
	cfg.Session.SequentialOrder = nil
	if err := cfg.Validate(); err != nil {
		t.Errorf("simultaneous mode should not require sequential_order: %v", err)
	}
}

func TestWriteStarterRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinicalq.yaml")
	if err := WriteStarter(path); err != nil {
		t.Fatalf("WriteStarter error: %v", err)
	}
	if err := WriteStarter(path); err == nil {
		t.Error("second WriteStarter should refuse to overwrite")
	}

	// The starter must itself load cleanly.
	if _, err := Load(path, true); err != nil {
		t.Errorf("starter config did not load: %v", err)
	}
}
