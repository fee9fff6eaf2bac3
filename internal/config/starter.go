package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// starterYAML is the init-config template. It mirrors Default() so a
// freshly written file loads back unchanged.
const starterYAML = `# ClinicalQ console configuration.
session:
  mode: sequential            # sequential | simultaneous
  epoch_seconds: 15
  reposition_seconds: 20
  reposition_mode: timer      # timer | manual (manual gates on the Ready key)
  cue_lead_seconds: 3         # 0-10; pre-notification before the next task
  sampling_rate: 250
  fast_mode: false
  live_bandpower: true
  live_window_seconds: 2.0
  include_frontal_baseline: true
  locations: [O1, Cz, Fz, F3, F4]
  channels:
    Cz: 1
    O1: 2
    Fz: 3
    F3: 4
    F4: 5
  sequential_order: [O1, Cz, Fz, F3, F4]

engine:
  command: [clinicalq-engine, run]
  output_dir: results
  stop_grace_seconds: 5

relay:
  enabled: false
  addr: 127.0.0.1:8471

cues:
  enabled: true
  beep_interval_ms: 180

log:
  file: clinicalq.log
  level: info
`

// WriteStarter writes the starter configuration file, creating parent
// directories. It refuses to overwrite an existing file.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(starterYAML), 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
