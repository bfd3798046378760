package events

import (
	"encoding/json"
	"log/slog"
)

// eventEnvelope is used for initial JSON parsing to determine event type.
type eventEnvelope struct {
	Type EventType `json:"type"`
}

// ParseEvent parses one line written by LogSink into a typed Event. Unknown
// event types return nil with no error so older binaries can read newer logs.
func ParseEvent(line []byte) (Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, err
	}

	var ev Event
	switch envelope.Type {
	case EventControllerStart:
		ev = &ControllerStartEvent{}
	case EventControllerStop:
		ev = &ControllerStopEvent{}
	case EventTimerOutput:
		ev = &OutputEvent{}
	case EventRunStart:
		ev = &RunStartEvent{}
	case EventRunEnd:
		ev = &RunEndEvent{}
	case EventError:
		ev = &ErrorEvent{}
	default:
		slog.Debug("unknown event type", "type", envelope.Type)
		return nil, nil
	}

	if err := json.Unmarshal(line, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// RunID extracts the run identifier from an event, if it has one.
func RunID(ev Event) string {
	switch e := ev.(type) {
	case *OutputEvent:
		return e.RunID
	case *RunStartEvent:
		return e.RunID
	case *RunEndEvent:
		return e.RunID
	default:
		return ""
	}
}
