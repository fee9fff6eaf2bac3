// Package event defines the engine wire vocabulary and the line decoder.
// The engine writes one JSON object per line on stdout; stderr carries
// free-form diagnostics. Types here mirror the engine protocol without
// importing engine packages.
package event

import (
	"encoding/json"
	"math"
)

// Stream tags which output channel a line arrived on.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// Event is the decoded form of one engine output line.
type Event interface {
	Kind() string
}

// EpochRef is the lookahead reference an epoch_start may carry for the
// epoch that follows it.
type EpochRef struct {
	Index       int    `json:"index"`
	Label       string `json:"label"`
	Instruction string `json:"instruction,omitempty"`
}

// SessionStart opens a session.
type SessionStart struct {
	Mode string `json:"mode"`
}

// BoardReady reports the acquisition board parameters after startup.
type BoardReady struct {
	SamplingRate int   `json:"sampling_rate"`
	EEGChannels  []int `json:"eeg_channels"`
}

// SequenceStart opens one site's epoch sequence.
type SequenceStart struct {
	Sequence    string   `json:"sequence"`
	Locations   []string `json:"locations"`
	TotalEpochs int      `json:"total_epochs"`
}

// SequenceComplete closes one site's epoch sequence.
type SequenceComplete struct {
	Sequence string `json:"sequence"`
}

// EpochStart opens a recording epoch.
type EpochStart struct {
	Sequence    string    `json:"sequence"`
	Index       int       `json:"index"`
	Label       string    `json:"label"`
	Instruction string    `json:"instruction"`
	Seconds     int       `json:"seconds"`
	Locations   []string  `json:"locations"`
	Next        *EpochRef `json:"next_epoch,omitempty"`
}

// EpochTick is the per-second countdown inside an epoch.
type EpochTick struct {
	Sequence         string `json:"sequence"`
	Index            int    `json:"index"`
	Label            string `json:"label"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

// EpochComplete closes a recording epoch.
type EpochComplete struct {
	Sequence          string   `json:"sequence"`
	Index             int      `json:"index"`
	Label             string   `json:"label"`
	CapturedLocations []string `json:"captured_locations"`
}

// RepositionStart opens an electrode-move pause before the named site.
type RepositionStart struct {
	NextLocation string `json:"next_location"`
	Mode         string `json:"mode"`
	Seconds      int    `json:"seconds"`
	Message      string `json:"message"`
}

// RepositionTick is the countdown inside a timer-mode reposition.
type RepositionTick struct {
	SecondsRemaining int    `json:"seconds_remaining"`
	NextLocation     string `json:"next_location"`
}

// RepositionWaiting reports a manual-mode reposition blocked on operator
// readiness.
type RepositionWaiting struct {
	NextLocation string `json:"next_location"`
	Message      string `json:"message"`
}

// RepositionInputEOF reports the engine's command input closed while it
// was waiting for readiness; the engine continues rather than deadlock.
type RepositionInputEOF struct {
	NextLocation string `json:"next_location"`
}

// RepositionComplete closes a reposition pause.
type RepositionComplete struct {
	NextLocation string `json:"next_location"`
	Mode         string `json:"mode"`
}

// Sample is one spectral feature value. Missing or non-finite values on
// the wire decode to NaN instead of failing the whole event.
type Sample float64

// UnmarshalJSON accepts numbers and null; anything else also maps to NaN
// so a single odd value cannot reject an otherwise valid bandpower event.
// Null must be handled before unmarshalling: json.Unmarshal leaves the
// target untouched on null, which would read as a real zero.
func (s *Sample) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Sample(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*s = Sample(math.NaN())
		return nil
	}
	*s = Sample(f)
	return nil
}

// Bandpower carries one windowed spectral sample per active site.
type Bandpower struct {
	Sequence         string                       `json:"sequence"`
	Index            int                          `json:"index"`
	Label            string                       `json:"label"`
	SecondsElapsed   int                          `json:"seconds_elapsed"`
	SecondsRemaining int                          `json:"seconds_remaining"`
	WindowSeconds    float64                      `json:"window_seconds"`
	Features         map[string]map[string]Sample `json:"features"`
}

// AnalysisComplete reports the metric derivation finished.
type AnalysisComplete struct {
	Metrics    int `json:"metrics"`
	OutOfRange int `json:"out_of_range"`
}

// BoardStopped reports the acquisition board shut down.
type BoardStopped struct{}

// SessionComplete closes a session; the result artifact is at OutputPath.
type SessionComplete struct {
	OutputPath string `json:"output_path"`
}

// SessionStopped reports the engine terminated on request.
type SessionStopped struct{}

// Error is a fatal engine-side failure.
type Error struct {
	Message string `json:"message"`
}

// Log is any line that is not a well-formed event: raw engine chatter,
// stack traces, stderr diagnostics. Nothing the engine prints is dropped.
type Log struct {
	Stream  Stream `json:"stream"`
	Message string `json:"message"`
}

// Unknown preserves a well-formed event whose tag this build does not
// recognize. The UI surfaces it so vocabulary growth stays visible.
type Unknown struct {
	Tag     string
	Payload json.RawMessage
}

func (SessionStart) Kind() string       { return "session_start" }
func (BoardReady) Kind() string         { return "board_ready" }
func (SequenceStart) Kind() string      { return "sequence_start" }
func (SequenceComplete) Kind() string   { return "sequence_complete" }
func (EpochStart) Kind() string         { return "epoch_start" }
func (EpochTick) Kind() string          { return "epoch_tick" }
func (EpochComplete) Kind() string      { return "epoch_complete" }
func (RepositionStart) Kind() string    { return "reposition_start" }
func (RepositionTick) Kind() string     { return "reposition_tick" }
func (RepositionWaiting) Kind() string  { return "reposition_waiting" }
func (RepositionInputEOF) Kind() string { return "reposition_input_eof" }
func (RepositionComplete) Kind() string { return "reposition_complete" }
func (Bandpower) Kind() string          { return "bandpower" }
func (AnalysisComplete) Kind() string   { return "analysis_complete" }
func (BoardStopped) Kind() string       { return "board_stopped" }
func (SessionComplete) Kind() string    { return "session_complete" }
func (SessionStopped) Kind() string     { return "session_stopped" }
func (Error) Kind() string              { return "error" }
func (Log) Kind() string                { return "log" }
func (u Unknown) Kind() string          { return u.Tag }

// Identity returns the composite epoch identity used to scope live state.
func (e EpochStart) Identity() string {
	return epochIdentity(e.Sequence, e.Index, e.Label)
}

// Identity returns the composite epoch identity of the ticking epoch.
func (e EpochTick) Identity() string {
	return epochIdentity(e.Sequence, e.Index, e.Label)
}
