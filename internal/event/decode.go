package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

type envelope struct {
	Event string `json:"event"`
}

// Decode turns one engine output line into an Event. A line that is not a
// JSON object with an "event" tag becomes a Log event tagged with the
// caller's stream; a well-formed line with an unrecognized tag decodes to
// Unknown. Decode never discards a line and never returns nil.
func Decode(line []byte, stream Stream) Event {
	trimmed := strings.TrimSpace(string(line))
	scrubbed := ScrubNonFinite([]byte(trimmed))

	var env envelope
	if err := json.Unmarshal(scrubbed, &env); err != nil || env.Event == "" {
		return Log{Stream: stream, Message: trimmed}
	}

	raw := json.RawMessage(scrubbed)
	ev, err := decodeTagged(env.Event, raw)
	if err != nil {
		// Known tag with a malformed body: degrade to observability,
		// same as any other unparseable line.
		return Log{Stream: stream, Message: trimmed}
	}
	return ev
}

func decodeTagged(tag string, raw json.RawMessage) (Event, error) {
	switch tag {
	case "session_start":
		return unmarshalAs[SessionStart](raw)
	case "board_ready":
		return unmarshalAs[BoardReady](raw)
	case "sequence_start":
		return unmarshalAs[SequenceStart](raw)
	case "sequence_complete":
		return unmarshalAs[SequenceComplete](raw)
	case "epoch_start":
		return unmarshalAs[EpochStart](raw)
	case "epoch_tick":
		return unmarshalAs[EpochTick](raw)
	case "epoch_complete":
		return unmarshalAs[EpochComplete](raw)
	case "reposition_start":
		return unmarshalAs[RepositionStart](raw)
	case "reposition_tick":
		return unmarshalAs[RepositionTick](raw)
	case "reposition_waiting":
		return unmarshalAs[RepositionWaiting](raw)
	case "reposition_input_eof":
		return unmarshalAs[RepositionInputEOF](raw)
	case "reposition_complete":
		return unmarshalAs[RepositionComplete](raw)
	case "bandpower":
		return unmarshalAs[Bandpower](raw)
	case "analysis_complete":
		return unmarshalAs[AnalysisComplete](raw)
	case "board_stopped":
		return BoardStopped{}, nil
	case "session_complete":
		return unmarshalAs[SessionComplete](raw)
	case "session_stopped":
		return SessionStopped{}, nil
	case "error":
		return unmarshalAs[Error](raw)
	case "log":
		return unmarshalAs[Log](raw)
	default:
		return Unknown{Tag: tag, Payload: raw}, nil
	}
}

func unmarshalAs[T Event](raw json.RawMessage) (Event, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func epochIdentity(sequence string, index int, label string) string {
	return fmt.Sprintf("%s-%d-%s", sequence, index, label)
}
