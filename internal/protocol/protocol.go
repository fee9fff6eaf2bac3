// Package protocol holds the fixed ClinicalQ recording protocol: the epoch
// sequence per electrode site, the sequential site order, the default
// channel map and the spectral bands the live view charts. The tables are
// embedded so the binary is self-contained.
package protocol

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed protocol.yaml
var rawTables []byte

// EpochSpec describes one timed recording interval within a sequence.
type EpochSpec struct {
	Index       int    `yaml:"index" json:"index"`
	Label       string `yaml:"label" json:"label"`
	Instruction string `yaml:"instruction" json:"instruction"`
	Seconds     int    `yaml:"seconds" json:"seconds"`
}

type tables struct {
	Locations         []string               `yaml:"locations"`
	Channels          map[string]int         `yaml:"channels"`
	SequentialOrder   []string               `yaml:"sequential_order"`
	ChartedBands      []string               `yaml:"charted_bands"`
	Sequences         map[string][]EpochSpec `yaml:"sequences"`
	SimultaneousExtra []EpochSpec            `yaml:"simultaneous_extra"`
}

var t tables

func init() {
	if err := yaml.Unmarshal(rawTables, &t); err != nil {
		panic(fmt.Sprintf("protocol: embedded tables are invalid: %v", err))
	}
}

// Locations returns the electrode sites a full assessment records.
func Locations() []string {
	return append([]string(nil), t.Locations...)
}

// DefaultChannels returns the default site-to-board-channel map.
func DefaultChannels() map[string]int {
	out := make(map[string]int, len(t.Channels))
	for k, v := range t.Channels {
		out[k] = v
	}
	return out
}

// SequentialOrder returns the site order used in sequential mode.
func SequentialOrder() []string {
	return append([]string(nil), t.SequentialOrder...)
}

// ChartedBands returns the spectral bands the live bandpower view plots,
// in display order.
func ChartedBands() []string {
	return append([]string(nil), t.ChartedBands...)
}

// Sequence returns the epoch sequence for a site, or an error for a site
// the protocol does not define.
func Sequence(location string) ([]EpochSpec, error) {
	seq, ok := t.Sequences[location]
	if !ok {
		return nil, fmt.Errorf("protocol: no sequence for location %q", location)
	}
	return append([]EpochSpec(nil), seq...), nil
}

// SimultaneousExtra returns the extra epochs appended in simultaneous mode
// when the frontal eyes-closed baseline is enabled.
func SimultaneousExtra() []EpochSpec {
	return append([]EpochSpec(nil), t.SimultaneousExtra...)
}

// KnownLocation reports whether the protocol defines the given site.
func KnownLocation(location string) bool {
	_, ok := t.Sequences[location]
	return ok
}
