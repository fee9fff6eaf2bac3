package metrics

import (
	"math"
	"testing"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   Status
		usable bool
	}{
		{"IN_RANGE", StatusInRange, true},
		{"in range", StatusInRange, true},
		{"In-Range", StatusInRange, true},
		{"  pass  ", StatusInRange, true},
		{"ok", StatusInRange, true},
		{"normal", StatusInRange, true},
		{"OUT_OF_RANGE", StatusOutOfRange, true},
		{"out of   range", StatusOutOfRange, true},
		{"FAIL", StatusOutOfRange, true},
		{"high", StatusOutOfRange, true},
		{"low", StatusOutOfRange, true},
		{"missing", StatusMissing, true},
		{"NaN", StatusMissing, true},
		{"", StatusMissing, false},
		{"n/a", StatusMissing, false},
		{"unknown", StatusMissing, false},
		{"splendid", StatusMissing, false},
	}

	for _, tt := range tests {
		got, usable := NormalizeStatus(tt.in)
		if got != tt.want || usable != tt.usable {
			t.Errorf("NormalizeStatus(%q) = (%v, %v), want (%v, %v)",
				tt.in, got, usable, tt.want, tt.usable)
		}
	}
}

func TestNormalizeStatusClosedSet(t *testing.T) {
	// Whatever the producer sends, the output is one of the three
	// canonical values.
	inputs := []string{"PASS", "yes", "out", "½", "IN_RANGE ", "errored", "-", "0"}
	for _, in := range inputs {
		got, _ := NormalizeStatus(in)
		switch got {
		case StatusInRange, StatusOutOfRange, StatusMissing:
		default:
			t.Errorf("NormalizeStatus(%q) = %q, outside the closed set", in, got)
		}
	}
}

func TestNormalizeStatusIdempotent(t *testing.T) {
	for _, st := range []Status{StatusInRange, StatusOutOfRange, StatusMissing} {
		got, usable := NormalizeStatus(string(st))
		if got != st || !usable {
			t.Errorf("NormalizeStatus(%q) = (%v, %v), want (%v, true)", st, got, usable, st)
		}
	}
}

func TestResolveStatusPrecedence(t *testing.T) {
	// Explicit status wins over a contradicting range.
	if got := resolveStatus("pass", 100, "< 25"); got != StatusInRange {
		t.Errorf("explicit pass with out-of-range value = %v, want IN_RANGE", got)
	}
	// But a non-finite value downgrades even an explicit status.
	if got := resolveStatus("pass", math.NaN(), "< 25"); got != StatusMissing {
		t.Errorf("explicit pass with NaN value = %v, want MISSING", got)
	}
	// Unusable status falls through to inference.
	if got := resolveStatus("", 10, "< 25"); got != StatusInRange {
		t.Errorf("inferred status = %v, want IN_RANGE", got)
	}
	if got := resolveStatus("unknown", 30, "< 25"); got != StatusOutOfRange {
		t.Errorf("inferred status = %v, want OUT_OF_RANGE", got)
	}
}

func TestFilterModeCycle(t *testing.T) {
	m := FilterAll
	want := []FilterMode{FilterInRange, FilterOutOfRange, FilterMissing, FilterAll}
	for i, w := range want {
		m = m.Next()
		if m != w {
			t.Errorf("cycle step %d = %v, want %v", i, m, w)
		}
	}
}

func TestFilterDoesNotMutate(t *testing.T) {
	records := []Record{
		{Name: "a", Status: StatusInRange},
		{Name: "b", Status: StatusOutOfRange},
		{Name: "c", Status: StatusMissing},
		{Name: "d", Status: StatusOutOfRange},
	}

	got := Filter(records, FilterOutOfRange)
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "d" {
		t.Errorf("Filter(out-of-range) = %v", got)
	}
	if len(records) != 4 {
		t.Errorf("source slice mutated, len = %d", len(records))
	}

	if got := Filter(records, FilterAll); len(got) != 4 {
		t.Errorf("Filter(all) length = %d, want 4", len(got))
	}
	if got := Filter(records, FilterMissing); len(got) != 1 || got[0].Name != "c" {
		t.Errorf("Filter(missing) = %v", got)
	}
	if got := Filter(nil, FilterInRange); len(got) != 0 {
		t.Errorf("Filter(nil) = %v, want empty", got)
	}
}
