package metrics

import (
	"encoding/json"
	"math"
	"testing"
)

func docFromJSON(t *testing.T, data string) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		t.Fatalf("test document invalid: %v", err)
	}
	return doc
}

func TestNormalizeFlatDocument(t *testing.T) {
	doc := docFromJSON(t, `{
		"metrics": [
			{"location":"Cz","metric":"Theta/Beta Ratio","value":2.0,"normal_range":"1.8-2.2"},
			{"location":"Cz","metric":"Alpha Peak","value":8.0,"normal_range":"> 9.5 Hz","probe":"Do you have trouble focusing?"},
			{"location":"O1","metric":"Alpha Response","normal_range":"> 25%"}
		]
	}`)

	records, summary, err := Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	if records[0].Status != StatusInRange {
		t.Errorf("records[0].Status = %v, want IN_RANGE", records[0].Status)
	}
	if records[1].Status != StatusOutOfRange {
		t.Errorf("records[1].Status = %v, want OUT_OF_RANGE", records[1].Status)
	}
	if records[2].Status != StatusMissing {
		t.Errorf("records[2].Status = %v, want MISSING", records[2].Status)
	}
	if !math.IsNaN(records[2].Value) {
		t.Errorf("records[2].Value = %v, want NaN", records[2].Value)
	}

	if summary.InRange != 1 || summary.OutOfRange != 1 || summary.Missing != 1 {
		t.Errorf("summary counts = %+v", summary)
	}
	if len(summary.Probes) != 1 || summary.Probes[0] != "Do you have trouble focusing?" {
		t.Errorf("summary.Probes = %v", summary.Probes)
	}
}

func TestNormalizeNestedDocument(t *testing.T) {
	// The metrics array sits under a wrapper; the document summary carries
	// its own probe list which merges after the metric-derived probes.
	doc := docFromJSON(t, `{
		"assessment": {
			"results": {
				"metrics": [
					{"site":"Fz","name":"Delta Magnitude","result_value":"75","range":"< 60 uV","question":"Q2"}
				]
			}
		},
		"summary": {"potential_symptom_questions": ["Q1", "Q2"]}
	}`)

	records, summary, err := Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	r := records[0]
	if r.Location != "Fz" || r.Name != "Delta Magnitude" {
		t.Errorf("aliases not resolved: %+v", r)
	}
	if r.Value != 75 {
		t.Errorf("numeric string value = %v, want 75", r.Value)
	}
	if r.Status != StatusOutOfRange {
		t.Errorf("Status = %v, want OUT_OF_RANGE", r.Status)
	}

	want := []string{"Q2", "Q1"}
	if len(summary.Probes) != len(want) {
		t.Fatalf("Probes = %v, want %v", summary.Probes, want)
	}
	for i := range want {
		if summary.Probes[i] != want[i] {
			t.Errorf("Probes[%d] = %q, want %q", i, summary.Probes[i], want[i])
		}
	}
}

func TestNormalizeProbeRules(t *testing.T) {
	// Probes come only from OUT_OF_RANGE metrics, trimmed and de-duplicated
	// in first-seen order.
	doc := docFromJSON(t, `{
		"metrics": [
			{"metric":"a","value":1,"normal_range":"< 5","probe":"never asked"},
			{"metric":"b","value":9,"normal_range":"< 5","probe":"  Q-first  "},
			{"metric":"c","value":9,"normal_range":"< 5","probe":"Q-first"},
			{"metric":"d","value":9,"normal_range":"< 5","probe":"Q-second"},
			{"metric":"e","value":9,"normal_range":"< 5","probe":"   "}
		]
	}`)

	_, summary, err := Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	want := []string{"Q-first", "Q-second"}
	if len(summary.Probes) != len(want) {
		t.Fatalf("Probes = %v, want %v", summary.Probes, want)
	}
	for i := range want {
		if summary.Probes[i] != want[i] {
			t.Errorf("Probes[%d] = %q, want %q", i, summary.Probes[i], want[i])
		}
	}
}

func TestNormalizeExplicitStatusWins(t *testing.T) {
	doc := docFromJSON(t, `{
		"metrics": [
			{"metric":"a","value":100,"normal_range":"< 25","status":"pass"},
			{"metric":"b","value":10,"normal_range":"< 25","flag":"fail"}
		]
	}`)

	records, _, err := Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if records[0].Status != StatusInRange {
		t.Errorf("explicit pass ignored: %v", records[0].Status)
	}
	if records[1].Status != StatusOutOfRange {
		t.Errorf("flag alias ignored: %v", records[1].Status)
	}
}

func TestNormalizeNoMetrics(t *testing.T) {
	doc := docFromJSON(t, `{"summary":{"note":"empty run"}}`)
	if _, _, err := Normalize(doc); err != ErrNoMetrics {
		t.Errorf("err = %v, want ErrNoMetrics", err)
	}
}

func TestNormalizeSkipsNonObjectElements(t *testing.T) {
	doc := docFromJSON(t, `{"metrics":[{"metric":"a","value":1,"normal_range":"< 5"}, "junk", 42]}`)
	records, _, err := Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestNormalizeHemisphericPair(t *testing.T) {
	doc := docFromJSON(t, `{
		"metrics": [
			{"metric":"Alpha Asymmetry","value":-2.0,"left_value":10.0,"right_value":12.0,"normal_range":"abs <= 5"}
		]
	}`)
	records, _, err := Normalize(doc)
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	r := records[0]
	if r.LeftValue != 10 || r.RightValue != 12 {
		t.Errorf("pair = (%v, %v), want (10, 12)", r.LeftValue, r.RightValue)
	}
	if r.Status != StatusInRange {
		t.Errorf("Status = %v, want IN_RANGE", r.Status)
	}
}
