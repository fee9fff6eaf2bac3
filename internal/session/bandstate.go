package session

import (
	"math"

	"github.com/clinicalq/console/internal/event"
)

// BandState buffers the live bandpower series for one epoch: per
// configured location, one ordered sample slice per charted band. It does
// no smoothing or band math; the renderer reads it as-is.
type BandState struct {
	identity  string
	locations map[string]bool
	bands     map[string]bool
	bandOrder []string
	series    map[string]map[string][]float64
}

// NewBandState scopes the buffer to the configured locations and band
// vocabulary. Samples outside either set are dropped on arrival.
func NewBandState(locations, bands []string) *BandState {
	b := &BandState{
		locations: make(map[string]bool, len(locations)),
		bands:     make(map[string]bool, len(bands)),
		bandOrder: append([]string(nil), bands...),
		series:    make(map[string]map[string][]float64),
	}
	for _, loc := range locations {
		b.locations[loc] = true
	}
	for _, band := range bands {
		b.bands[band] = true
	}
	return b
}

// Reset clears every series and rebinds the buffer to a new epoch
// identity. Called on session start and on every epoch start.
func (b *BandState) Reset(identity string) {
	b.identity = identity
	b.series = make(map[string]map[string][]float64)
}

// Identity returns the epoch the buffered series belong to.
func (b *BandState) Identity() string { return b.identity }

// Observe appends the finite samples of one bandpower event in arrival
// order. Unconfigured locations and out-of-vocabulary bands are ignored;
// non-finite values are dropped, never stored as NaN.
func (b *BandState) Observe(ev event.Bandpower) {
	for loc, features := range ev.Features {
		if !b.locations[loc] {
			continue
		}
		for band, sample := range features {
			v := float64(sample)
			if !b.bands[band] || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if b.series[loc] == nil {
				b.series[loc] = make(map[string][]float64)
			}
			b.series[loc][band] = append(b.series[loc][band], v)
		}
	}
}

// Series returns a copy of the sample series for one (location, band)
// pair; nil when no sample has arrived yet.
func (b *BandState) Series(location, band string) []float64 {
	s := b.series[location][band]
	if len(s) == 0 {
		return nil
	}
	return append([]float64(nil), s...)
}

// Latest returns the most recent sample for one (location, band) pair.
func (b *BandState) Latest(location, band string) (float64, bool) {
	s := b.series[location][band]
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

// Bands returns the charted band vocabulary in display order.
func (b *BandState) Bands() []string {
	return append([]string(nil), b.bandOrder...)
}
