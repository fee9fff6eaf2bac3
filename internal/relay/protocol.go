package relay

// Message is the envelope for every frame sent to observers.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	MsgSnapshot  = "snapshot"
	MsgPhase     = "phase"
	MsgEpoch     = "epoch"
	MsgTick      = "tick"
	MsgBandpower = "bandpower"
	MsgGate      = "gate"
	MsgCue       = "cue"
	MsgLog       = "log"
	MsgResult    = "result"
	MsgFailure   = "failure"
)

// SnapshotPayload is sent once to each observer on connect.
type SnapshotPayload struct {
	SessionID string `json:"session_id"`
	Phase     string `json:"phase"`
	Location  string `json:"location,omitempty"`
	Label     string `json:"label,omitempty"`
	Gate      string `json:"gate,omitempty"`
}

type PhasePayload struct {
	Phase string `json:"phase"`
}

type EpochPayload struct {
	Sequence    string `json:"sequence"`
	Index       int    `json:"index"`
	Label       string `json:"label"`
	Instruction string `json:"instruction,omitempty"`
	Seconds     int    `json:"seconds"`
}

type TickPayload struct {
	Sequence         string `json:"sequence"`
	Index            int    `json:"index"`
	Label            string `json:"label"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

type BandpowerPayload struct {
	Features map[string]map[string]float64 `json:"features"`
}

type GatePayload struct {
	Location string `json:"location"`
	Open     bool   `json:"open"`
}

type CuePayload struct {
	Label     string `json:"label"`
	Lookahead bool   `json:"lookahead"`
}

type LogPayload struct {
	Stream  string `json:"stream"`
	Message string `json:"message"`
}

// ResultPayload carries the summary counts only; observers fetch the
// full record set from the written artifact.
type ResultPayload struct {
	SessionID  string   `json:"session_id"`
	InRange    int      `json:"in_range"`
	OutOfRange int      `json:"out_of_range"`
	Missing    int      `json:"missing"`
	Probes     []string `json:"probes,omitempty"`
}

type FailurePayload struct {
	Message string `json:"message"`
}
