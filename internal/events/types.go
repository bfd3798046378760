// Package events defines the event taxonomy shared by the controller, the
// terminal UI, the daemon and the web hub, plus the router and sinks that
// move events between them.
package events

import (
	"time"

	"github.com/npratt/intervals/internal/timer"
)

// EventType identifies the category and nature of an event.
type EventType string

const (
	// Controller lifecycle
	EventControllerStart EventType = "controller.start"
	EventControllerStop  EventType = "controller.stop"

	// Every non-trivial FSM output
	EventTimerOutput EventType = "timer.output"

	// A run spans Start to program end or Stop
	EventRunStart EventType = "run.start"
	EventRunEnd   EventType = "run.end"

	EventError EventType = "error"
)

// Source constants identify the origin of events.
const (
	SourceController = "controller"
	SourceDaemon     = "daemon"
	SourceWeb        = "web"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// ControllerStartEvent is emitted when the controller loop begins.
type ControllerStartEvent struct {
	BaseEvent
	Program string `json:"program"`
	Phases  int    `json:"phases"`
}

// ControllerStopEvent is emitted when the controller loop exits.
type ControllerStopEvent struct {
	BaseEvent
	Reason string `json:"reason,omitempty"`
}

// OutputEvent carries one FSM output together with where the program stood
// after it was applied.
type OutputEvent struct {
	BaseEvent
	RunID  string       `json:"run_id,omitempty"`
	Input  timer.Input  `json:"input"`
	Output timer.Output `json:"output"`
	State  timer.State  `json:"state"`
	Cursor int          `json:"cursor"`
	Label  string       `json:"label,omitempty"`
	Text   string       `json:"text"`
}

// RunStartEvent is emitted when Start begins a new run.
type RunStartEvent struct {
	BaseEvent
	RunID   string `json:"run_id"`
	Program string `json:"program"`
}

// Run end reasons.
const (
	RunCompleted = "completed"
	RunStopped   = "stopped"
	RunStalled   = "stalled"
)

// RunEndEvent is emitted when a run reaches the end of its program, is
// stopped, or is ended by the entry step guard.
type RunEndEvent struct {
	BaseEvent
	RunID      string `json:"run_id"`
	Reason     string `json:"reason"`
	DurationMs int64  `json:"duration_ms"`
}

// Severity constants for error events.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// ErrorEvent is emitted for any error condition.
type ErrorEvent struct {
	BaseEvent
	Message  string            `json:"message"`
	Severity string            `json:"severity"`
	Context  map[string]string `json:"context,omitempty"`
}

// NewEvent creates a BaseEvent with the given type and source.
func NewEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
		Src:       source,
	}
}

// NewControllerEvent creates a BaseEvent with the controller as the source.
func NewControllerEvent(eventType EventType) BaseEvent {
	return NewEvent(eventType, SourceController)
}
