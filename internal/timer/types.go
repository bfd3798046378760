// Package timer implements the interval timer state machine. An FSM
// interprets a program one phase at a time and turns each Input into exactly
// one Output. It owns no clock and performs no I/O: time passes only through
// Step inputs delivered by the caller.
package timer

import (
	"fmt"
	"strings"

	"github.com/npratt/intervals/internal/program"
)

// Input is an event delivered to the FSM.
type Input int

// Inputs accepted by Apply.
const (
	Start Input = iota
	Step
	Stop
	Pause
	Resume
	Reset
	Skip
	Receive
)

var inputNames = [...]string{
	Start:   "start",
	Step:    "step",
	Stop:    "stop",
	Pause:   "pause",
	Resume:  "resume",
	Reset:   "reset",
	Skip:    "skip",
	Receive: "input",
}

// Inputs lists every input in declaration order.
func Inputs() []Input {
	return []Input{Start, Step, Stop, Pause, Resume, Reset, Skip, Receive}
}

func (i Input) String() string {
	if i >= 0 && int(i) < len(inputNames) {
		return inputNames[i]
	}
	return fmt.Sprintf("input(%d)", int(i))
}

// ParseInput maps a name such as "pause" to its Input. Matching ignores case.
func ParseInput(s string) (Input, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range inputNames {
		if name == s {
			return Input(i), nil
		}
	}
	return 0, fmt.Errorf("unknown timer input %q", s)
}

// OutputKind identifies the variant of an Output.
type OutputKind int

// Output kinds.
const (
	NoChange OutputKind = iota
	ProgramStopped
	PhaseChange
	TimerProgress
	TimerPaused
	TimerResumed
	TimerReset
)

var outputNames = [...]string{
	NoChange:       "no_change",
	ProgramStopped: "program_stopped",
	PhaseChange:    "phase_change",
	TimerProgress:  "timer_progress",
	TimerPaused:    "timer_paused",
	TimerResumed:   "timer_resumed",
	TimerReset:     "timer_reset",
}

func (k OutputKind) String() string {
	if k >= 0 && int(k) < len(outputNames) {
		return outputNames[k]
	}
	return fmt.Sprintf("output(%d)", int(k))
}

// Output describes what one Apply call changed. Only the fields relevant to
// Kind are set, which keeps Output comparable with ==.
//
//   - ProgramStopped: Phase
//   - PhaseChange: Prev, Next, Completed
//   - TimerProgress, TimerResumed, TimerReset: Seconds
type Output struct {
	Kind      OutputKind    `json:"kind"`
	Phase     program.Phase `json:"phase"`
	Prev      program.Phase `json:"prev"`
	Next      program.Phase `json:"next"`
	Completed bool          `json:"completed,omitempty"`
	Seconds   int           `json:"seconds,omitempty"`
}

// Unchanged is the NoChange output.
func Unchanged() Output { return Output{Kind: NoChange} }

// Stopped reports that the program was stopped while on phase.
func Stopped(phase program.Phase) Output {
	return Output{Kind: ProgramStopped, Phase: phase}
}

// Changed reports a move from prev to next. completed is false when the
// previous phase was skipped.
func Changed(prev, next program.Phase, completed bool) Output {
	return Output{Kind: PhaseChange, Prev: prev, Next: next, Completed: completed}
}

// Progress reports the seconds left after a tick.
func Progress(seconds int) Output { return Output{Kind: TimerProgress, Seconds: seconds} }

// Paused reports that the countdown was paused.
func Paused() Output { return Output{Kind: TimerPaused} }

// Resumed reports that the countdown continues with seconds left.
func Resumed(seconds int) Output { return Output{Kind: TimerResumed, Seconds: seconds} }

// Restarted reports that the countdown was reset to seconds.
func Restarted(seconds int) Output { return Output{Kind: TimerReset, Seconds: seconds} }

func (o Output) String() string {
	switch o.Kind {
	case ProgramStopped:
		return fmt.Sprintf("%s{phase=%v}", o.Kind, o.Phase)
	case PhaseChange:
		return fmt.Sprintf("%s{%v -> %v, completed=%t}", o.Kind, o.Prev, o.Next, o.Completed)
	case TimerProgress, TimerResumed, TimerReset:
		return fmt.Sprintf("%s{%d}", o.Kind, o.Seconds)
	default:
		return o.Kind.String()
	}
}

// StateKind identifies the execution state of the FSM.
type StateKind int

// Execution states.
const (
	Idle StateKind = iota
	Counting
	Awaiting
)

func (k StateKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Counting:
		return "timer"
	case Awaiting:
		return "input"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// State is the execution state. Progress, Duration and Paused are only
// meaningful while Kind is Counting, where 0 <= Progress <= Duration.
type State struct {
	Kind     StateKind `json:"kind"`
	Progress int       `json:"progress,omitempty"`
	Duration int       `json:"duration,omitempty"`
	Paused   bool      `json:"paused,omitempty"`
}

// MarshalText encodes the input by name.
func (i Input) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText decodes an input name.
func (i *Input) UnmarshalText(text []byte) error {
	parsed, err := ParseInput(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// MarshalText encodes the output kind by name.
func (k OutputKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes an output kind name.
func (k *OutputKind) UnmarshalText(text []byte) error {
	for i, name := range outputNames {
		if name == string(text) {
			*k = OutputKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown output kind %q", text)
}

// MarshalText encodes the state kind by name.
func (k StateKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a state kind name.
func (k *StateKind) UnmarshalText(text []byte) error {
	for _, candidate := range []StateKind{Idle, Counting, Awaiting} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown state kind %q", text)
}
