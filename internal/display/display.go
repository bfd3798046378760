// Package display turns timer outputs into what a front end shows: the clock
// string, the cue to play, and whether the one-second driver should run.
package display

import (
	"fmt"
	"strings"

	"github.com/npratt/intervals/internal/program"
	"github.com/npratt/intervals/internal/timer"
)

// Fixed display texts.
const (
	ReadyText   = "Ready to Start"
	InputText   = "Input"
	StoppedText = "Stopped"
	PausedMark  = " ||"
)

// Clock renders seconds as HH:MM:SS. Hours keep growing past 99.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds - hours*3600) / 60
	secs := seconds - hours*3600 - minutes*60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// Describe is the text shown on entering phase.
func Describe(phase program.Phase) string {
	switch phase.Kind {
	case program.KindTimeFor:
		return Clock(phase.Duration)
	case program.KindReceiveInput:
		return InputText
	default:
		return ReadyText
	}
}

// Text returns the display text after out, given the text shown before it.
func Text(prev string, out timer.Output) string {
	switch out.Kind {
	case timer.ProgramStopped:
		return ReadyText
	case timer.PhaseChange:
		return Describe(out.Next)
	case timer.TimerProgress, timer.TimerResumed, timer.TimerReset:
		return Clock(out.Seconds)
	case timer.TimerPaused:
		if strings.HasSuffix(prev, PausedMark) {
			return prev
		}
		return prev + PausedMark
	default:
		return prev
	}
}

// FromState renders a state directly, for clients that join mid-run.
func FromState(st timer.State) string {
	switch st.Kind {
	case timer.Counting:
		if st.Paused {
			return Clock(st.Progress) + PausedMark
		}
		return Clock(st.Progress)
	case timer.Awaiting:
		return InputText
	default:
		return ReadyText
	}
}

// DriverAction tells the caller what to do with its periodic Step source.
type DriverAction int

const (
	DriverKeep DriverAction = iota
	DriverStart
	DriverStop
)

func (a DriverAction) String() string {
	switch a {
	case DriverStart:
		return "start"
	case DriverStop:
		return "stop"
	default:
		return "keep"
	}
}

// Driver maps an output to a driver action. Countdown phases and resumes
// start the driver; pausing, stopping and entering any other phase stop it.
func Driver(out timer.Output) DriverAction {
	switch out.Kind {
	case timer.PhaseChange:
		if out.Next.Kind == program.KindTimeFor {
			return DriverStart
		}
		return DriverStop
	case timer.TimerResumed:
		return DriverStart
	case timer.TimerPaused, timer.ProgramStopped:
		return DriverStop
	default:
		return DriverKeep
	}
}
