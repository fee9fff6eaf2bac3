package metrics

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrNoMetrics reports a result document with no locatable metrics array.
var ErrNoMetrics = errors.New("metrics: no metrics array found in document")

// maxSearchDepth bounds the breadth-first search for the metrics array.
const maxSearchDepth = 8

// Field aliases, first present wins. Older engine builds and third-party
// exports spell the same field differently.
var (
	aliasLocation = []string{"location", "site", "channel"}
	aliasName     = []string{"metric", "metric_name", "name"}
	aliasValue    = []string{"value", "result_value", "measured"}
	aliasLeft     = []string{"left_value", "value_left", "left"}
	aliasRight    = []string{"right_value", "value_right", "right"}
	aliasRange    = []string{"normal_range", "range", "expected", "norm"}
	aliasStatus   = []string{"status", "result", "flag"}
	aliasProbe    = []string{"probe", "question", "follow_up"}
	aliasFormula  = []string{"formula", "calc", "derivation"}
)

// Normalize converts an arbitrarily shaped result document into canonical
// records plus a derived summary. The metrics array may be nested under
// any wrapper object; the first array found by breadth-first search wins.
func Normalize(doc map[string]any) ([]Record, Summary, error) {
	elements, err := findMetrics(doc)
	if err != nil {
		return nil, Summary{}, err
	}

	records := make([]Record, 0, len(elements))
	for _, el := range elements {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, normalizeElement(m))
	}

	return records, summarize(records, doc), nil
}

func normalizeElement(m map[string]any) Record {
	value := firstNumber(m, aliasValue)
	rangeText := firstString(m, aliasRange)

	return Record{
		Location:    firstString(m, aliasLocation),
		Name:        firstString(m, aliasName),
		Value:       value,
		LeftValue:   firstNumber(m, aliasLeft),
		RightValue:  firstNumber(m, aliasRight),
		NormalRange: rangeText,
		Status:      resolveStatus(firstString(m, aliasStatus), value, rangeText),
		Probe:       firstString(m, aliasProbe),
		Formula:     firstString(m, aliasFormula),
	}
}

// findMetrics walks the document breadth-first looking for a node with a
// "metrics" key holding an array. Map keys are visited in sorted order so
// the search is deterministic when several candidates exist.
func findMetrics(doc map[string]any) ([]any, error) {
	type node struct {
		value map[string]any
		depth int
	}
	queue := []node{{value: doc, depth: 0}}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if arr, ok := n.value["metrics"].([]any); ok {
			return arr, nil
		}
		if n.depth >= maxSearchDepth {
			continue
		}

		keys := make([]string, 0, len(n.value))
		for k := range n.value {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			switch child := n.value[k].(type) {
			case map[string]any:
				queue = append(queue, node{value: child, depth: n.depth + 1})
			case []any:
				for _, item := range child {
					if m, ok := item.(map[string]any); ok {
						queue = append(queue, node{value: m, depth: n.depth + 1})
					}
				}
			}
		}
	}
	return nil, ErrNoMetrics
}

func summarize(records []Record, doc map[string]any) Summary {
	var s Summary
	seen := make(map[string]bool)

	for _, r := range records {
		switch r.Status {
		case StatusInRange:
			s.InRange++
		case StatusOutOfRange:
			s.OutOfRange++
		default:
			s.Missing++
		}
		if r.Status != StatusOutOfRange {
			continue
		}
		probe := strings.TrimSpace(r.Probe)
		if probe == "" || seen[probe] {
			continue
		}
		seen[probe] = true
		s.Probes = append(s.Probes, probe)
	}

	// Probes the document's own summary object lists are merged after the
	// metric-derived ones, subject to the same de-duplication.
	for _, probe := range documentProbes(doc) {
		probe = strings.TrimSpace(probe)
		if probe == "" || seen[probe] {
			continue
		}
		seen[probe] = true
		s.Probes = append(s.Probes, probe)
	}

	return s
}

func documentProbes(doc map[string]any) []string {
	summary, ok := doc["summary"].(map[string]any)
	if !ok {
		return nil
	}
	arr, ok := summary["potential_symptom_questions"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// firstString returns the first alias present as a non-empty string.
func firstString(m map[string]any, aliases []string) string {
	for _, key := range aliases {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// firstNumber returns the first alias present as a finite-convertible
// number; NaN when none is. Numeric strings are tolerated.
func firstNumber(m map[string]any, aliases []string) float64 {
	for _, key := range aliases {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f
			}
		}
	}
	return math.NaN()
}

