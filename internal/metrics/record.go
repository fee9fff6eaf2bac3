// Package metrics normalizes engine result documents into canonical
// range-compliance findings. Result documents come from heterogeneous
// producer versions, so every field access goes through an alias list and
// every status string through a closed-set canonicalization.
package metrics

import (
	"math"
	"strings"
)

// Status is the canonical compliance state of one metric. It is a closed
// set: producer-supplied strings never pass through uncanonicalized.
type Status string

const (
	StatusInRange    Status = "IN_RANGE"
	StatusOutOfRange Status = "OUT_OF_RANGE"
	StatusMissing    Status = "MISSING"
)

// Record is one canonical metric finding. Value is NaN when the source
// had no usable number; Left/Right carry an optional hemispheric pair.
type Record struct {
	Location    string  `json:"location"`
	Name        string  `json:"metric"`
	Value       float64 `json:"value"`
	LeftValue   float64 `json:"left_value"`
	RightValue  float64 `json:"right_value"`
	NormalRange string  `json:"normal_range"`
	Status      Status  `json:"status"`
	Probe       string  `json:"probe"`
	Formula     string  `json:"formula"`
}

// Summary counts each canonical status over the full metric list and
// collects the ordered, de-duplicated symptom probes.
type Summary struct {
	InRange    int      `json:"in_range"`
	OutOfRange int      `json:"out_of_range"`
	Missing    int      `json:"missing"`
	Probes     []string `json:"potential_symptom_questions"`
}

// FilterMode selects which records a display filter passes through.
type FilterMode int

const (
	FilterAll FilterMode = iota
	FilterInRange
	FilterOutOfRange
	FilterMissing
)

func (m FilterMode) String() string {
	switch m {
	case FilterInRange:
		return "in-range"
	case FilterOutOfRange:
		return "out-of-range"
	case FilterMissing:
		return "missing"
	default:
		return "all"
	}
}

// Next cycles to the following filter mode.
func (m FilterMode) Next() FilterMode {
	return (m + 1) % 4
}

// Filter returns the records matching the mode. The canonical slice is
// never mutated and the summary is unaffected by filtering.
func Filter(records []Record, mode FilterMode) []Record {
	if mode == FilterAll {
		return records
	}
	want := StatusInRange
	switch mode {
	case FilterOutOfRange:
		want = StatusOutOfRange
	case FilterMissing:
		want = StatusMissing
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Status == want {
			out = append(out, r)
		}
	}
	return out
}

// NormalizeStatus canonicalizes a producer-supplied status string. The
// second return is false when the string carries no usable status and the
// caller should fall through to range inference.
func NormalizeStatus(s string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.Join(strings.Fields(key), "_")

	switch key {
	case "in", "in_range", "inrange", "pass", "passed", "ok", "normal", "within_range":
		return StatusInRange, true
	case "out", "out_of_range", "outofrange", "fail", "failed", "high", "low", "abnormal":
		return StatusOutOfRange, true
	case "missing", "nan":
		return StatusMissing, true
	case "", "na", "n_a", "none", "unknown", "null":
		return StatusMissing, false
	default:
		return StatusMissing, false
	}
}

// resolveStatus applies the status precedence: an explicit canonical
// status wins; otherwise the normal-range text is parsed against the
// value. A non-finite value is MISSING regardless of range text.
func resolveStatus(explicit string, value float64, rangeText string) Status {
	if st, ok := NormalizeStatus(explicit); ok {
		if st != StatusMissing && (math.IsNaN(value) || math.IsInf(value, 0)) {
			return StatusMissing
		}
		return st
	}
	return InferStatus(value, rangeText)
}
