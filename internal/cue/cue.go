// Package cue turns epoch labels into audible beep patterns. Audio is a
// courtesy: any failure to produce sound degrades silently to visual-only
// cueing and never propagates into the event pipeline.
package cue

import (
	"io"
	"sync"
	"time"
)

// Pattern is a tone and how many times it repeats.
type Pattern struct {
	FrequencyHz int
	Repeats     int
}

// defaultPattern covers labels no category claims.
var defaultPattern = Pattern{FrequencyHz: 760, Repeats: 1}

// patterns maps label categories to tones. The mapping is total via the
// default, so an unknown protocol label still gets a single tone.
var patterns = map[string]Pattern{
	"EO":         {FrequencyHz: 880, Repeats: 1},
	"EC":         {FrequencyHz: 440, Repeats: 2},
	"FRONTAL_EC": {FrequencyHz: 440, Repeats: 2},
	"READ":       {FrequencyHz: 660, Repeats: 3},
	"COUNT":      {FrequencyHz: 660, Repeats: 3},
	"OMNI":       {FrequencyHz: 1000, Repeats: 2},
	"HARMONIC":   {FrequencyHz: 1000, Repeats: 2},
	"TEST":       {FrequencyHz: 1000, Repeats: 2},
}

// nextPattern announces the upcoming label during the lookahead window.
var nextPattern = Pattern{FrequencyHz: 520, Repeats: 1}

// PatternFor resolves the beep pattern for a cue label.
func PatternFor(label string) Pattern {
	if p, ok := patterns[label]; ok {
		return p
	}
	return defaultPattern
}

// Beeper emits one tone. Implementations must be safe for use from timer
// goroutines.
type Beeper interface {
	Beep(frequencyHz int) error
}

// Scheduler plays beep patterns without blocking the caller. Each repeat
// is scheduled at a fixed offset from cue start.
type Scheduler struct {
	beeper   Beeper
	interval time.Duration
	enabled  bool
}

// NewScheduler builds a scheduler. A nil beeper or enabled=false yields a
// scheduler whose Play calls are silent no-ops.
func NewScheduler(beeper Beeper, interval time.Duration, enabled bool) *Scheduler {
	if interval <= 0 {
		interval = 180 * time.Millisecond
	}
	return &Scheduler{beeper: beeper, interval: interval, enabled: enabled}
}

// Play schedules the pattern for an epoch label. Non-blocking; errors
// from the beeper are swallowed.
func (s *Scheduler) Play(label string) {
	s.play(PatternFor(label))
}

// PlayNext schedules the lookahead-warning tone.
func (s *Scheduler) PlayNext() {
	s.play(nextPattern)
}

func (s *Scheduler) play(p Pattern) {
	if s == nil || !s.enabled || s.beeper == nil {
		return
	}
	for i := 0; i < p.Repeats; i++ {
		freq := p.FrequencyHz
		time.AfterFunc(time.Duration(i)*s.interval, func() {
			_ = s.beeper.Beep(freq)
		})
	}
}

// TerminalBeeper rings the terminal bell. The terminal decides the actual
// tone, so the frequency is advisory; it exists so richer backends can
// honor it.
type TerminalBeeper struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalBeeper wraps a writer, normally the controlling terminal.
func NewTerminalBeeper(w io.Writer) *TerminalBeeper {
	return &TerminalBeeper{w: w}
}

// Beep writes BEL. Write errors are returned but callers discard them.
func (b *TerminalBeeper) Beep(int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.w.Write([]byte{0x07})
	return err
}
