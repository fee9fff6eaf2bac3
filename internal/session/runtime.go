// Package session holds the per-session runtime: the phase state machine
// driven by decoded engine events, the pending-ready gate for manual
// repositioning, and the live bandpower buffer. The runtime is a pure
// event consumer; side effects are returned as values for the controller
// to act on, which keeps transition logic directly testable.
package session

import (
	"github.com/clinicalq/console/internal/event"
)

// Phase is the coarse session state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSequencing
	PhaseEpoch
	PhaseRepositioning
	PhaseComplete
	PhaseStopped
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSequencing:
		return "sequencing"
	case PhaseEpoch:
		return "epoch"
	case PhaseRepositioning:
		return "repositioning"
	case PhaseComplete:
		return "complete"
	case PhaseStopped:
		return "stopped"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseStopped || p == PhaseFailed
}

// EpochContext retains the most recent epoch_start until superseded.
type EpochContext struct {
	Sequence    string
	Index       int
	Total       int
	Label       string
	Instruction string
	Seconds     int
	Locations   []string
	Next        *event.EpochRef
}

// Identity returns the composite epoch identity.
func (c EpochContext) Identity() string {
	return event.EpochStart{Sequence: c.Sequence, Index: c.Index, Label: c.Label}.Identity()
}

// Effect is a side effect a transition requests from the controller.
type Effect interface{ effect() }

// CueStart asks for the start-of-epoch cue for a label.
type CueStart struct{ Label string }

// CueNext asks for the pre-notification cue announcing the next label.
type CueNext struct{ Label string }

// GateOpened reports a manual reposition now blocks on operator readiness
// for the named location.
type GateOpened struct{ Location string }

// GateCleared reports the pending-ready gate released.
type GateCleared struct{ Location string }

func (CueStart) effect()    {}
func (CueNext) effect()     {}
func (GateOpened) effect()  {}
func (GateCleared) effect() {}

// Runtime is the owned mutable state of one session. Not safe for
// concurrent mutation; the controller feeds it from a single goroutine.
type Runtime struct {
	phase Phase
	epoch *EpochContext
	bands *BandState

	leadSeconds int

	// Cue de-duplication. lastCuedLabel suppresses re-cueing when the
	// same task label repeats across consecutive epochs; warnedEpoch
	// marks an epoch whose lookahead warning already fired.
	lastCuedLabel string
	warnedEpoch   string

	// Manual reposition gate. gate is the awaited location; gateClaimed
	// is set once a ready command has been issued for it.
	gate        string
	gateClaimed bool

	// totalEpochs is announced by sequence_start and carried into each
	// epoch context so the UI can render "epoch i/n".
	totalEpochs int

	failure string
}

// NewRuntime builds an idle runtime scoped to the configured locations,
// charted bands and cue lead time (seconds, pre-clamped by config).
func NewRuntime(locations, bands []string, leadSeconds int) *Runtime {
	return &Runtime{
		phase:       PhaseIdle,
		bands:       NewBandState(locations, bands),
		leadSeconds: leadSeconds,
	}
}

// Phase returns the current phase.
func (r *Runtime) Phase() Phase { return r.phase }

// Epoch returns the retained epoch context, nil before the first epoch.
func (r *Runtime) Epoch() *EpochContext { return r.epoch }

// Bands exposes the live bandpower buffer for rendering. Safe to read at
// any time; before any sample it simply reports empty series.
func (r *Runtime) Bands() *BandState { return r.bands }

// Failure returns the failure message when the phase is Failed.
func (r *Runtime) Failure() string { return r.failure }

// Gate returns the location a manual reposition is waiting on, or "".
func (r *Runtime) Gate() string { return r.gate }

// ClaimGate marks the pending gate as having an in-flight ready command.
// It reports false — and changes nothing — when no gate is set, the
// location does not match exactly, or a command was already issued.
func (r *Runtime) ClaimGate(location string) bool {
	if r.gate == "" || r.gate != location || r.gateClaimed {
		return false
	}
	r.gateClaimed = true
	return true
}

// Stop forces the local machine into Stopped without waiting for the
// engine's own terminal event; a late terminal event becomes a no-op.
func (r *Runtime) Stop() {
	if r.phase.Terminal() {
		return
	}
	r.phase = PhaseStopped
	r.clearGate()
}

// Apply advances the machine by one decoded event and returns the side
// effects the transition requests. Events after a terminal phase are
// tolerated as no-ops.
func (r *Runtime) Apply(ev event.Event) []Effect {
	if r.phase.Terminal() {
		return nil
	}

	switch e := ev.(type) {
	case event.SessionStart:
		r.phase = PhaseSequencing
		r.epoch = nil
		r.lastCuedLabel = ""
		r.warnedEpoch = ""
		r.failure = ""
		r.totalEpochs = 0
		r.bands.Reset("")
		return r.clearGate()

	case event.SequenceStart:
		r.phase = PhaseSequencing
		r.totalEpochs = e.TotalEpochs
		return nil

	case event.EpochStart:
		r.phase = PhaseEpoch
		r.epoch = &EpochContext{
			Sequence:    e.Sequence,
			Index:       e.Index,
			Total:       r.totalEpochs,
			Label:       e.Label,
			Instruction: e.Instruction,
			Seconds:     e.Seconds,
			Locations:   e.Locations,
			Next:        e.Next,
		}
		r.warnedEpoch = ""
		r.bands.Reset(e.Identity())

		if e.Label != r.lastCuedLabel {
			r.lastCuedLabel = e.Label
			return []Effect{CueStart{Label: e.Label}}
		}
		return nil

	case event.EpochTick:
		return r.applyTick(e)

	case event.EpochComplete:
		r.phase = PhaseSequencing
		return nil

	case event.RepositionStart:
		r.phase = PhaseRepositioning
		if e.Mode == "manual" {
			r.gate = e.NextLocation
			r.gateClaimed = false
			return []Effect{GateOpened{Location: e.NextLocation}}
		}
		return nil

	case event.RepositionComplete:
		r.phase = PhaseSequencing
		return r.clearGate()

	case event.RepositionInputEOF:
		// Engine gave up waiting; the gate is moot.
		return r.clearGate()

	case event.Bandpower:
		r.bands.Observe(e)
		return nil

	case event.SessionComplete:
		r.phase = PhaseComplete
		return r.clearGate()

	case event.SessionStopped:
		r.phase = PhaseStopped
		return r.clearGate()

	case event.Error:
		r.phase = PhaseFailed
		r.failure = e.Message
		return r.clearGate()
	}

	return nil
}

// applyTick fires the lookahead warning exactly when the remaining
// seconds equal the configured lead time, once per epoch, and only when
// the upcoming label actually differs. A tick cadence that never emits
// the lead value emits no warning.
func (r *Runtime) applyTick(e event.EpochTick) []Effect {
	if r.epoch == nil || r.phase != PhaseEpoch {
		return nil
	}
	if e.SecondsRemaining != r.leadSeconds {
		return nil
	}
	id := r.epoch.Identity()
	if r.warnedEpoch == id {
		return nil
	}
	next := r.epoch.Next
	if next == nil || next.Label == r.epoch.Label {
		return nil
	}
	r.warnedEpoch = id
	return []Effect{CueNext{Label: next.Label}}
}

func (r *Runtime) clearGate() []Effect {
	if r.gate == "" {
		return nil
	}
	loc := r.gate
	r.gate = ""
	r.gateClaimed = false
	return []Effect{GateCleared{Location: loc}}
}
