package timer

import "github.com/npratt/intervals/internal/program"

// DefaultMaxEntrySteps bounds how many Repeat and OffsetVariable phases one
// Apply call may resolve before the run is ended.
const DefaultMaxEntrySteps = 1 << 16

// FSM interprets a program. It is not safe for concurrent use: callers must
// serialize Apply calls (see package controller).
type FSM struct {
	prog     *program.Program
	state    State
	cursor   int
	maxSteps int
	stalled  bool
}

// Option configures an FSM.
type Option func(*FSM)

// WithMaxEntrySteps overrides DefaultMaxEntrySteps. Values below 1 keep the
// default.
func WithMaxEntrySteps(n int) Option {
	return func(f *FSM) {
		if n > 0 {
			f.maxSteps = n
		}
	}
}

// New returns an idle FSM that owns p. The program must come from
// program.New, which has already rejected invalid jumps and variable indices.
func New(p *program.Program, opts ...Option) *FSM {
	if p == nil {
		panic("timer: nil program")
	}
	f := &FSM{
		prog:     p,
		state:    State{Kind: Idle},
		maxSteps: DefaultMaxEntrySteps,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Program returns the owned program.
func (f *FSM) Program() *program.Program { return f.prog }

// State returns the current execution state.
func (f *FSM) State() State { return f.state }

// Cursor returns the zero-based phase index. It equals Program().Len() after
// the program has run to completion.
func (f *FSM) Cursor() int { return f.cursor }

// Current returns the phase under the cursor, or EndProgram past the end.
func (f *FSM) Current() program.Phase {
	ph, _ := f.prog.Phase(f.cursor)
	return ph
}

// Stalled reports whether the last run was ended by the entry step guard
// rather than by reaching the end of the program. It clears on Start.
func (f *FSM) Stalled() bool { return f.stalled }

// Apply feeds one input to the machine and reports what changed. It never
// fails: inputs that mean nothing in the current state yield NoChange.
func (f *FSM) Apply(in Input) Output {
	if in == Stop {
		return f.stop()
	}

	switch f.state.Kind {
	case Idle:
		if in == Start {
			return f.start()
		}
		return Unchanged()
	case Counting:
		return f.applyCounting(in)
	case Awaiting:
		return f.applyAwaiting(in)
	default:
		return Unchanged()
	}
}

func (f *FSM) applyCounting(in Input) Output {
	switch in {
	case Skip:
		return f.advance(false)
	case Step:
		if f.state.Paused {
			return Unchanged()
		}
		if f.state.Progress > 0 {
			f.state.Progress--
			return Progress(f.state.Progress)
		}
		return f.advance(true)
	case Reset:
		f.state.Progress = f.state.Duration
		return Restarted(f.state.Duration)
	case Pause:
		f.state.Paused = true
		return Paused()
	case Resume:
		f.state.Paused = false
		return Resumed(f.state.Progress)
	default:
		return Unchanged()
	}
}

func (f *FSM) applyAwaiting(in Input) Output {
	switch in {
	case Skip:
		return f.advance(false)
	case Receive:
		return f.advance(true)
	default:
		return Unchanged()
	}
}

func (f *FSM) start() Output {
	f.stalled = false
	f.prog.ResetVars()
	f.cursor = 0
	f.enter()
	return Changed(program.BeginProgram(), f.Current(), true)
}

func (f *FSM) stop() Output {
	current := f.Current()
	f.cursor = 0
	f.state = State{Kind: Idle}
	f.prog.ResetVars()
	return Stopped(current)
}

func (f *FSM) advance(completed bool) Output {
	prev := f.Current()
	f.cursor++
	f.enter()
	return Changed(prev, f.Current(), completed)
}

// enter resolves the phase under the cursor. Repeat and OffsetVariable move
// the cursor and loop; TimeFor, ReceiveInput and the end of the program stop
// the loop and set the new state.
func (f *FSM) enter() {
	for steps := 0; ; steps++ {
		ph, ok := f.prog.Phase(f.cursor)
		if !ok {
			f.finish()
			return
		}
		if !ph.Terminal() && steps >= f.maxSteps {
			f.stalled = true
			f.finish()
			return
		}

		switch ph.Kind {
		case program.KindTimeFor:
			f.state = State{Kind: Counting, Progress: ph.Duration, Duration: ph.Duration}
			return
		case program.KindReceiveInput:
			f.state = State{Kind: Awaiting}
			return
		case program.KindRepeat:
			if f.prog.AddVar(ph.VarIndex, -1) > 0 {
				f.cursor = ph.ToPhase
			} else {
				f.prog.ResetVar(ph.VarIndex)
				f.cursor++
			}
		case program.KindOffsetVariable:
			f.prog.AddVar(ph.VarIndex, ph.Offset)
			f.cursor++
		default:
			// Sentinels never survive program.New; end the run if one does.
			f.finish()
			return
		}
	}
}

func (f *FSM) finish() {
	f.cursor = f.prog.Len()
	f.state = State{Kind: Idle}
}
