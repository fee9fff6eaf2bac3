package session

import (
	"math"
	"testing"

	"github.com/clinicalq/console/internal/event"
)

func sample(loc string, values map[string]float64) event.Bandpower {
	features := map[string]map[string]event.Sample{loc: {}}
	for band, v := range values {
		features[loc][band] = event.Sample(v)
	}
	return event.Bandpower{Sequence: loc, Features: features}
}

func TestBandStateObserveOrder(t *testing.T) {
	b := NewBandState([]string{"Cz"}, []string{"alpha", "beta"})
	b.Reset("Cz-0-EO")

	b.Observe(sample("Cz", map[string]float64{"alpha": 1.0}))
	b.Observe(sample("Cz", map[string]float64{"alpha": 2.0}))
	b.Observe(sample("Cz", map[string]float64{"alpha": 3.0}))

	got := b.Series("Cz", "alpha")
	want := []float64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("Series = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Series[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if v, ok := b.Latest("Cz", "alpha"); !ok || v != 3 {
		t.Errorf("Latest = (%v, %v), want (3, true)", v, ok)
	}
}

func TestBandStateDropsUnconfigured(t *testing.T) {
	b := NewBandState([]string{"Cz"}, []string{"alpha"})

	b.Observe(sample("Pz", map[string]float64{"alpha": 1.0}))   // unknown location
	b.Observe(sample("Cz", map[string]float64{"gamma": 1.0}))   // unknown band
	b.Observe(sample("Cz", map[string]float64{"alpha": math.NaN()}))
	b.Observe(sample("Cz", map[string]float64{"alpha": math.Inf(1)}))

	if got := b.Series("Cz", "alpha"); got != nil {
		t.Errorf("Series = %v, want nil", got)
	}
	if got := b.Series("Pz", "alpha"); got != nil {
		t.Errorf("unconfigured location stored: %v", got)
	}
}

func TestBandStateDropsNonFiniteWireSamples(t *testing.T) {
	// Bare NaN on the wire is scrubbed to null during decode; it must
	// arrive here as NaN and be dropped, not stored as a real zero.
	b := NewBandState([]string{"Cz"}, []string{"alpha", "beta"})
	b.Reset("Cz-1-EO")

	line := `{"event":"bandpower","sequence":"Cz","index":1,"label":"EO",` +
		`"features":{"Cz":{"alpha":NaN,"beta":7.5}}}`
	bp, ok := event.Decode([]byte(line), event.StreamStdout).(event.Bandpower)
	if !ok {
		t.Fatalf("Decode did not yield a bandpower event")
	}
	b.Observe(bp)

	if got := b.Series("Cz", "alpha"); got != nil {
		t.Errorf("non-finite wire sample stored as %v, want dropped (nil series)", got)
	}
	if got := b.Series("Cz", "beta"); len(got) != 1 || got[0] != 7.5 {
		t.Errorf("finite sibling sample = %v, want [7.5]", got)
	}
}

func TestBandStateResetClears(t *testing.T) {
	b := NewBandState([]string{"Cz"}, []string{"alpha"})
	b.Reset("Cz-0-EO")
	b.Observe(sample("Cz", map[string]float64{"alpha": 5.0}))

	b.Reset("Cz-1-EC")
	if got := b.Series("Cz", "alpha"); got != nil {
		t.Errorf("Series after reset = %v, want nil", got)
	}
	if b.Identity() != "Cz-1-EC" {
		t.Errorf("Identity = %q, want Cz-1-EC", b.Identity())
	}
}

func TestBandStateSeriesIsCopy(t *testing.T) {
	b := NewBandState([]string{"Cz"}, []string{"alpha"})
	b.Observe(sample("Cz", map[string]float64{"alpha": 1.0}))

	s := b.Series("Cz", "alpha")
	s[0] = 99

	if got := b.Series("Cz", "alpha"); got[0] != 1 {
		t.Errorf("internal series mutated through returned slice: %v", got)
	}
}
