package display

import (
	"io"
	"sync"

	"github.com/npratt/intervals/internal/program"
	"github.com/npratt/intervals/internal/timer"
)

// Cue is a named signal played alongside an output.
type Cue int

const (
	CueProgramStart Cue = iota
	CueSkip
	CueTimerDone
	CueProgramDone
	CueProgramStopped
	CuePause
	CueResume
	CueReset
)

var cueNames = [...]string{
	CueProgramStart:   "Program-Start",
	CueSkip:           "Skip",
	CueTimerDone:      "Timer-Done",
	CueProgramDone:    "Program-Done",
	CueProgramStopped: "Program-Stopped",
	CuePause:          "Pause",
	CueResume:         "Resume",
	CueReset:          "Reset",
}

func (c Cue) String() string {
	if c >= 0 && int(c) < len(cueNames) {
		return cueNames[c]
	}
	return "Unknown"
}

// Asset is the sound file a graphical front end would play for c.
func (c Cue) Asset() string {
	return "assets/" + c.String() + "-Sound.mp3"
}

// MarshalText encodes the cue by name.
func (c Cue) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Cues lists the cues for out, in play order.
func Cues(out timer.Output) []Cue {
	switch out.Kind {
	case timer.ProgramStopped:
		return []Cue{CueProgramStopped}
	case timer.TimerProgress:
		if out.Seconds == 0 {
			return []Cue{CueTimerDone}
		}
		return nil
	case timer.TimerPaused:
		return []Cue{CuePause}
	case timer.TimerResumed:
		return []Cue{CueResume}
	case timer.TimerReset:
		return []Cue{CueReset}
	case timer.PhaseChange:
		return phaseChangeCues(out)
	default:
		return nil
	}
}

func phaseChangeCues(out timer.Output) []Cue {
	var cues []Cue
	switch out.Prev.Kind {
	case program.KindBeginProgram:
		cues = append(cues, CueProgramStart)
	case program.KindTimeFor:
		// a completed countdown already cued at zero
		if !out.Completed {
			cues = append(cues, CueSkip)
		}
	case program.KindReceiveInput:
		cues = append(cues, CueTimerDone)
	}
	if out.Next.Kind == program.KindEndProgram {
		cues = append(cues, CueProgramDone)
	}
	return cues
}

// Bell renders cues as the terminal bell.
type Bell struct {
	w       io.Writer
	enabled bool
	mu      sync.Mutex
	rung    int
}

// NewBell returns a Bell writing to w. A disabled bell counts cues but
// writes nothing.
func NewBell(w io.Writer, enabled bool) *Bell {
	return &Bell{w: w, enabled: enabled}
}

// Ring writes one BEL for a non-empty cue list.
func (b *Bell) Ring(cues []Cue) error {
	if len(cues) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.rung++
	if !b.enabled || b.w == nil {
		return nil
	}
	_, err := io.WriteString(b.w, "\a")
	return err
}

// Rung returns how many cue lists have been rung.
func (b *Bell) Rung() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rung
}
