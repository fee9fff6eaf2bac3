package monitor

import (
	"strings"
	"testing"
)

func TestSparkline(t *testing.T) {
	got := sparkline([]float64{0, 1, 2, 3}, 10)
	runes := []rune(got)
	if len(runes) != 4 {
		t.Fatalf("sparkline length = %d, want 4", len(runes))
	}
	if runes[0] != '▁' {
		t.Errorf("lowest sample = %c, want ▁", runes[0])
	}
	if runes[3] != '█' {
		t.Errorf("highest sample = %c, want █", runes[3])
	}
}

func TestSparklineKeepsNewestSamples(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = float64(i)
	}
	got := []rune(sparkline(values, 10))
	if len(got) != 10 {
		t.Fatalf("sparkline length = %d, want 10", len(got))
	}
	// Window holds the newest values, so the last rune is the maximum.
	if got[9] != '█' {
		t.Errorf("last rune = %c, want █", got[9])
	}
}

func TestSparklineFlatSeries(t *testing.T) {
	got := []rune(sparkline([]float64{5, 5, 5}, 10))
	if len(got) != 3 {
		t.Fatalf("sparkline length = %d, want 3", len(got))
	}
	for i, r := range got {
		if r != got[0] {
			t.Errorf("flat series rune %d = %c, differs from %c", i, r, got[0])
		}
	}
}

func TestMonitorShowsEpoch(t *testing.T) {
	m := New([]string{"alpha"})
	m.Width = 80
	m.SetEpoch(Epoch{
		Sequence:    "Cz",
		Index:       3,
		Total:       10,
		Label:       "EC",
		Instruction: "Eyes closed, still and relaxed.",
		Seconds:     15,
		Remaining:   15,
		NextLabel:   "EO",
	})

	out := m.View()
	for _, want := range []string{"Cz", "epoch 3/10", "EC", "Eyes closed", "next: EO"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestMonitorEpochIndexIsNotShifted(t *testing.T) {
	// The engine numbers epochs from 1; the first epoch renders as 1/n
	// and the last as n/n.
	m := New([]string{"alpha"})
	m.Width = 80

	m.SetEpoch(Epoch{Sequence: "Cz", Index: 1, Total: 10, Label: "EO", Seconds: 15, Remaining: 15})
	if out := m.View(); !strings.Contains(out, "epoch 1/10") {
		t.Errorf("first epoch view missing %q:\n%s", "epoch 1/10", out)
	}

	m.SetEpoch(Epoch{Sequence: "Cz", Index: 10, Total: 10, Label: "HARMONIC", Seconds: 15, Remaining: 15})
	if out := m.View(); !strings.Contains(out, "epoch 10/10") {
		t.Errorf("last epoch view missing %q:\n%s", "epoch 10/10", out)
	}
}

func TestMonitorSeriesPerLocation(t *testing.T) {
	m := New([]string{"alpha", "beta"})
	m.Width = 80
	m.SetEpoch(Epoch{Sequence: "MASTER", Index: 1, Total: 11, Label: "EO", Seconds: 15, Remaining: 15})

	m.SetSeries("Cz", "alpha", []float64{1, 2, 3})
	m.SetSeries("O1", "alpha", []float64{4, 5})
	m.SetSeries("Cz", "beta", nil) // empty series stays off the chart

	out := m.View()
	for _, want := range []string{"Cz", "O1", "alpha"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if strings.Contains(out, "beta") {
		t.Error("empty band series should not render a row")
	}

	// A new epoch clears every location's chart.
	m.SetEpoch(Epoch{Sequence: "MASTER", Index: 2, Total: 11, Label: "EC", Seconds: 15, Remaining: 15})
	if out := m.View(); !strings.Contains(out, "waiting for samples") {
		t.Errorf("new epoch should reset the chart:\n%s", out)
	}
}

func TestMonitorGateBanner(t *testing.T) {
	m := New([]string{"alpha"})
	m.Width = 80
	m.SetGate("O1")

	out := m.View()
	if !strings.Contains(out, "O1") || !strings.Contains(out, "press r") {
		t.Errorf("View() missing reposition banner: %q", out)
	}

	m.SetGate("")
	if strings.Contains(m.View(), "press r") {
		t.Error("banner still shown after gate cleared")
	}
}

func TestMonitorTerminalBanners(t *testing.T) {
	m := New([]string{"alpha"})
	m.Width = 80

	m.SetPhase("failed")
	m.SetFailure("board init failed")
	if out := m.View(); !strings.Contains(out, "board init failed") {
		t.Errorf("failed view missing message: %q", out)
	}

	m.SetPhase("complete")
	if out := m.View(); !strings.Contains(out, "Session complete") {
		t.Errorf("complete view missing banner: %q", out)
	}
}
