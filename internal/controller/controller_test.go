package controller

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"

	"github.com/npratt/intervals/internal/display"
	"github.com/npratt/intervals/internal/events"
	"github.com/npratt/intervals/internal/program"
	"github.com/npratt/intervals/internal/timer"
)

// manualTick keeps the ticker from firing so tests drive Step themselves.
const manualTick = time.Hour

type harness struct {
	ctrl   *Controller
	router *events.Router
	events <-chan events.Event
	runErr chan error
}

func newFSM(t *testing.T, phases []program.Phase, vars []int, opts ...timer.Option) *timer.FSM {
	t.Helper()
	p, err := program.New(phases, vars, program.WithName("test"))
	if err != nil {
		t.Fatalf("program.New failed: %v", err)
	}
	return timer.New(p, opts...)
}

// start runs a controller for fsm and stops it when the test ends.
func start(t *testing.T, fsm *timer.FSM, opts ...Option) *harness {
	t.Helper()
	router := events.NewRouter(10)
	h := &harness{
		ctrl:   New(fsm, router, slogt.New(t), opts...),
		router: router,
		events: router.SubscribeBuffered(1000),
		runErr: make(chan error, 1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { h.runErr <- h.ctrl.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-h.ctrl.Done():
		case <-time.After(2 * time.Second):
			t.Error("controller did not stop")
		}
		router.Close()
	})

	h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventControllerStart })
	return h
}

// waitFor reads events until match returns true.
func (h *harness) waitFor(t *testing.T, match func(events.Event) bool) events.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-h.events:
			if !ok {
				t.Fatal("event channel closed")
			}
			if match(e) {
				return e
			}
		case <-timeout:
			t.Fatal("timeout waiting for event")
			return nil
		}
	}
}

// outputs collects every timer output until the run ends.
func (h *harness) outputsUntilRunEnd(t *testing.T) ([]timer.Output, *events.RunEndEvent) {
	t.Helper()
	var outs []timer.Output
	for {
		e := h.waitFor(t, func(e events.Event) bool {
			return e.Type() == events.EventTimerOutput || e.Type() == events.EventRunEnd
		})
		switch ev := e.(type) {
		case *events.OutputEvent:
			outs = append(outs, ev.Output)
		case *events.RunEndEvent:
			return outs, ev
		}
	}
}

func (h *harness) apply(t *testing.T, in timer.Input) timer.Output {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := h.ctrl.Apply(ctx, in)
	if err != nil {
		t.Fatalf("Apply(%s) failed: %v", in, err)
	}
	return out
}

func TestControllerStates(t *testing.T) {
	t.Run("initial state is idle", func(t *testing.T) {
		c := New(newFSM(t, []program.Phase{program.TimeFor(3)}, nil), nil, nil)
		if c.State() != StateIdle {
			t.Errorf("expected initial state %s, got %s", StateIdle, c.State())
		}
		s := c.Snapshot()
		if s.Text != display.ReadyText {
			t.Errorf("initial text = %q, want %q", s.Text, display.ReadyText)
		}
		if s.Program != "test" || s.Phases != 1 {
			t.Errorf("snapshot program = %q/%d", s.Program, s.Phases)
		}
	})

	t.Run("running then stopped", func(t *testing.T) {
		h := start(t, newFSM(t, []program.Phase{program.TimeFor(3)}, nil), WithTickInterval(manualTick))
		if h.ctrl.State() != StateRunning {
			t.Errorf("state = %s, want running", h.ctrl.State())
		}

		h.ctrl.Stop()
		h.ctrl.Stop()

		select {
		case err := <-h.runErr:
			if err != nil {
				t.Errorf("Run returned %v, want nil", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after Stop")
		}

		if h.ctrl.State() != StateStopped {
			t.Errorf("state = %s, want stopped", h.ctrl.State())
		}
		stop := h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventControllerStop })
		if stop.(*events.ControllerStopEvent).Reason != "stop requested" {
			t.Errorf("stop reason = %q", stop.(*events.ControllerStopEvent).Reason)
		}
	})

	t.Run("second run is rejected", func(t *testing.T) {
		h := start(t, newFSM(t, []program.Phase{program.TimeFor(3)}, nil), WithTickInterval(manualTick))
		if err := h.ctrl.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
			t.Errorf("second Run = %v, want ErrAlreadyRunning", err)
		}
	})
}

func TestControllerManualCountdown(t *testing.T) {
	h := start(t, newFSM(t, []program.Phase{program.TimeFor(3)}, nil), WithTickInterval(manualTick))

	want := []timer.Output{
		timer.Changed(program.BeginProgram(), program.TimeFor(3), true),
		timer.Progress(2),
		timer.Progress(1),
		timer.Progress(0),
		timer.Changed(program.TimeFor(3), program.EndProgram(), true),
	}
	inputs := []timer.Input{timer.Start, timer.Step, timer.Step, timer.Step, timer.Step}

	for i, in := range inputs {
		if got := h.apply(t, in); got != want[i] {
			t.Fatalf("Apply(%s) = %v, want %v", in, got, want[i])
		}
	}

	outs, end := h.outputsUntilRunEnd(t)
	if len(outs) != len(want) {
		t.Fatalf("got %d output events, want %d: %v", len(outs), len(want), outs)
	}
	for i := range want {
		if outs[i] != want[i] {
			t.Errorf("output event %d = %v, want %v", i, outs[i], want[i])
		}
	}
	if end.Reason != events.RunCompleted {
		t.Errorf("run end reason = %q, want completed", end.Reason)
	}

	s := h.ctrl.Snapshot()
	if s.State.Kind != timer.Idle || s.Cursor != 1 {
		t.Errorf("snapshot after run = %+v", s)
	}
	if s.RunID != "" {
		t.Errorf("RunID = %q after run ended, want empty", s.RunID)
	}
	if s.Text != display.ReadyText {
		t.Errorf("Text = %q, want %q", s.Text, display.ReadyText)
	}
}

func TestControllerTickerDrivesCountdown(t *testing.T) {
	h := start(t,
		newFSM(t, []program.Phase{program.TimeFor(3), program.TimeFor(2)}, nil),
		WithTickInterval(2*time.Millisecond),
	)

	if !h.ctrl.Post(timer.Start) {
		t.Fatal("Post(Start) = false")
	}
	h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventRunStart })

	outs, end := h.outputsUntilRunEnd(t)
	if end.Reason != events.RunCompleted {
		t.Errorf("run end reason = %q, want completed", end.Reason)
	}

	var progress []int
	for _, o := range outs {
		if o.Kind == timer.TimerProgress {
			progress = append(progress, o.Seconds)
		}
	}
	wantProgress := []int{2, 1, 0, 1, 0}
	if len(progress) != len(wantProgress) {
		t.Fatalf("progress = %v, want %v", progress, wantProgress)
	}
	for i := range wantProgress {
		if progress[i] != wantProgress[i] {
			t.Errorf("progress = %v, want %v", progress, wantProgress)
			break
		}
	}
}

func TestControllerRunIDs(t *testing.T) {
	h := start(t, newFSM(t, []program.Phase{program.ReceiveInput()}, nil), WithTickInterval(manualTick))

	h.apply(t, timer.Start)
	first := h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventRunStart }).(*events.RunStartEvent)
	out := h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventTimerOutput }).(*events.OutputEvent)

	if first.RunID == "" {
		t.Fatal("run start has empty RunID")
	}
	if out.RunID != first.RunID {
		t.Errorf("output RunID = %q, want %q", out.RunID, first.RunID)
	}
	if h.ctrl.Snapshot().RunID != first.RunID {
		t.Errorf("snapshot RunID = %q, want %q", h.ctrl.Snapshot().RunID, first.RunID)
	}

	h.apply(t, timer.Receive)
	h.apply(t, timer.Start)
	second := h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventRunStart }).(*events.RunStartEvent)
	if second.RunID == first.RunID {
		t.Error("a new run must get a new RunID")
	}
}

func TestControllerPauseStopsTicking(t *testing.T) {
	h := start(t, newFSM(t, []program.Phase{program.TimeFor(1000)}, nil), WithTickInterval(2*time.Millisecond))

	h.apply(t, timer.Start)
	h.waitFor(t, func(e events.Event) bool {
		o, ok := e.(*events.OutputEvent)
		return ok && o.Output.Kind == timer.TimerProgress
	})

	if got := h.apply(t, timer.Pause); got != timer.Paused() {
		t.Fatalf("Pause = %v", got)
	}
	paused := h.ctrl.Snapshot()
	if !paused.State.Paused {
		t.Fatal("snapshot not paused")
	}

	time.Sleep(30 * time.Millisecond)
	if got := h.ctrl.Snapshot().State.Progress; got != paused.State.Progress {
		t.Errorf("progress moved while paused: %d -> %d", paused.State.Progress, got)
	}
	if got := h.apply(t, timer.Step); got != timer.Unchanged() {
		t.Errorf("Step while paused = %v, want no_change", got)
	}

	if got := h.apply(t, timer.Resume); got != timer.Resumed(paused.State.Progress) {
		t.Errorf("Resume = %v", got)
	}
	h.waitFor(t, func(e events.Event) bool {
		o, ok := e.(*events.OutputEvent)
		return ok && o.Output.Kind == timer.TimerProgress && o.Output.Seconds < paused.State.Progress
	})
}

func TestControllerInputPhaseHaltsTicker(t *testing.T) {
	h := start(t,
		newFSM(t, []program.Phase{program.TimeFor(0), program.ReceiveInput(), program.TimeFor(1)}, nil),
		WithTickInterval(2*time.Millisecond),
	)

	h.apply(t, timer.Start)
	h.waitFor(t, func(e events.Event) bool {
		o, ok := e.(*events.OutputEvent)
		return ok && o.Output.Kind == timer.PhaseChange && o.Output.Next == program.ReceiveInput()
	})

	time.Sleep(30 * time.Millisecond)
	s := h.ctrl.Snapshot()
	if s.State.Kind != timer.Awaiting || s.Cursor != 1 {
		t.Fatalf("snapshot = %+v, want awaiting input at phase 1", s)
	}
	if s.Text != display.InputText {
		t.Errorf("Text = %q, want %q", s.Text, display.InputText)
	}

	h.apply(t, timer.Receive)
	_, end := h.outputsUntilRunEnd(t)
	if end.Reason != events.RunCompleted {
		t.Errorf("run end reason = %q, want completed", end.Reason)
	}
}

func TestControllerStopInput(t *testing.T) {
	h := start(t,
		newFSM(t, []program.Phase{program.OffsetVariable(0, 3), program.TimeFor(10)}, []int{1}),
		WithTickInterval(manualTick),
	)

	h.apply(t, timer.Start)
	h.apply(t, timer.Step)
	if v := h.ctrl.Snapshot().Variables; v[0] != 4 {
		t.Fatalf("variables during run = %v, want [4]", v)
	}

	if got := h.apply(t, timer.Stop); got != timer.Stopped(program.TimeFor(10)) {
		t.Errorf("Stop = %v", got)
	}

	_, end := h.outputsUntilRunEnd(t)
	if end.Reason != events.RunStopped {
		t.Errorf("run end reason = %q, want stopped", end.Reason)
	}

	s := h.ctrl.Snapshot()
	if s.Cursor != 0 || s.State.Kind != timer.Idle {
		t.Errorf("snapshot after stop = %+v", s)
	}
	if s.Variables[0] != 1 {
		t.Errorf("variables after stop = %v, want [1]", s.Variables)
	}
}

func TestControllerStallWarning(t *testing.T) {
	fsm := newFSM(t,
		[]program.Phase{program.ReceiveInput(), program.OffsetVariable(0, 1), program.Repeat(1, 0)},
		[]int{2},
		timer.WithMaxEntrySteps(50),
	)
	h := start(t, fsm, WithTickInterval(manualTick))

	h.apply(t, timer.Start)
	h.apply(t, timer.Receive)

	warn := h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventError }).(*events.ErrorEvent)
	if warn.Severity != events.SeverityWarning {
		t.Errorf("severity = %q, want warning", warn.Severity)
	}
	end := h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventRunEnd }).(*events.RunEndEvent)
	if end.Reason != events.RunStalled {
		t.Errorf("run end reason = %q, want stalled", end.Reason)
	}
	if !h.ctrl.Snapshot().Stalled {
		t.Error("snapshot should report the stall")
	}
}

func TestControllerShutdownEndsRun(t *testing.T) {
	h := start(t, newFSM(t, []program.Phase{program.TimeFor(100)}, nil), WithTickInterval(manualTick))

	h.apply(t, timer.Start)
	h.ctrl.Stop()

	end := h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventRunEnd }).(*events.RunEndEvent)
	if end.Reason != events.RunStopped {
		t.Errorf("run end reason = %q, want stopped", end.Reason)
	}
	h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventControllerStop })
}

func TestControllerApplyAfterStop(t *testing.T) {
	h := start(t, newFSM(t, []program.Phase{program.TimeFor(1)}, nil), WithTickInterval(manualTick))
	h.ctrl.Stop()
	<-h.ctrl.Done()

	if _, err := h.ctrl.Apply(context.Background(), timer.Start); !errors.Is(err, ErrStopped) {
		t.Errorf("Apply after stop = %v, want ErrStopped", err)
	}
	if h.ctrl.Post(timer.Start) {
		t.Error("Post after stop should report false")
	}
}

func TestControllerApplyContext(t *testing.T) {
	// The loop is never started, so the reply never comes.
	c := New(newFSM(t, []program.Phase{program.TimeFor(1)}, nil), nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Apply(ctx, timer.Start); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Apply = %v, want context.DeadlineExceeded", err)
	}
}

func TestControllerPostQueueFull(t *testing.T) {
	c := New(newFSM(t, []program.Phase{program.TimeFor(1)}, nil), nil, nil, WithQueueSize(1))

	if !c.Post(timer.Start) {
		t.Error("first Post should be queued")
	}
	if c.Post(timer.Pause) {
		t.Error("second Post should be dropped by a full queue")
	}
}

func TestControllerPost(t *testing.T) {
	h := start(t, newFSM(t, []program.Phase{program.ReceiveInput()}, nil), WithTickInterval(manualTick))

	if !h.ctrl.Post(timer.Start) {
		t.Fatal("Post(Start) = false")
	}
	h.waitFor(t, func(e events.Event) bool { return e.Type() == events.EventRunStart })
}

func TestControllerTogglePause(t *testing.T) {
	h := start(t, newFSM(t, []program.Phase{program.TimeFor(10)}, nil), WithTickInterval(manualTick))
	h.apply(t, timer.Start)

	for range 3 {
		if !h.ctrl.TogglePause() {
			t.Fatal("TogglePause() = false")
		}
	}
	// requests are FIFO, so this returns after all three toggles
	h.apply(t, timer.Step)

	var got []timer.Input
	for len(got) < 3 {
		e := h.waitFor(t, func(e events.Event) bool {
			out, ok := e.(*events.OutputEvent)
			return ok && (out.Input == timer.Pause || out.Input == timer.Resume)
		})
		got = append(got, e.(*events.OutputEvent).Input)
	}
	want := []timer.Input{timer.Pause, timer.Resume, timer.Pause}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("toggles applied as %v, want %v", got, want)
		}
	}
	if !h.ctrl.Snapshot().State.Paused {
		t.Error("timer should be paused after three toggles")
	}
}

func TestControllerIgnoredInputsEmitNothing(t *testing.T) {
	h := start(t, newFSM(t, []program.Phase{program.ReceiveInput()}, nil), WithTickInterval(manualTick))

	for _, in := range []timer.Input{timer.Step, timer.Pause, timer.Resume, timer.Reset, timer.Skip, timer.Receive} {
		if got := h.apply(t, in); got != timer.Unchanged() {
			t.Errorf("idle Apply(%s) = %v, want no_change", in, got)
		}
	}
	h.apply(t, timer.Start)

	first := h.waitFor(t, func(e events.Event) bool { return e.Type() != events.EventControllerStart })
	if first.Type() != events.EventRunStart {
		t.Errorf("first event after ignored inputs = %s, want run.start", first.Type())
	}
}

func TestControllerBell(t *testing.T) {
	var buf bytes.Buffer
	bell := display.NewBell(&buf, true)
	h := start(t,
		newFSM(t, []program.Phase{program.TimeFor(1)}, nil),
		WithTickInterval(manualTick),
		WithBell(bell),
	)

	h.apply(t, timer.Start) // program start
	h.apply(t, timer.Step)  // timer done at zero
	h.apply(t, timer.Step)  // program done

	if bell.Rung() != 3 {
		t.Errorf("Rung() = %d, want 3", bell.Rung())
	}
}

func TestControllerOutline(t *testing.T) {
	p := program.MustNew(
		[]program.Phase{program.TimeFor(5), program.ReceiveInput()},
		nil,
		program.WithLabels([]string{"Warm up", "Go"}),
	)
	c := New(timer.New(p), nil, nil)

	outline := c.Outline()
	if len(outline) != 2 {
		t.Fatalf("Outline() has %d steps, want 2", len(outline))
	}
	if outline[0].Label != "Warm up" || outline[1].Phase != program.ReceiveInput() {
		t.Errorf("Outline() = %+v", outline)
	}

	outline[0].Label = "changed"
	if c.Outline()[0].Label != "Warm up" {
		t.Error("Outline() must return a copy")
	}
}

func TestControllerConcurrentInputs(t *testing.T) {
	h := start(t, newFSM(t, []program.Phase{program.TimeFor(1000)}, nil), WithTickInterval(time.Millisecond))
	h.apply(t, timer.Start)

	inputs := []timer.Input{timer.Pause, timer.Resume, timer.Step, timer.Reset}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			for j := 0; j < 50; j++ {
				if _, err := h.ctrl.Apply(ctx, inputs[(i+j)%len(inputs)]); err != nil {
					t.Errorf("Apply failed: %v", err)
					return
				}
				_ = h.ctrl.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	s := h.ctrl.Snapshot()
	if s.State.Kind != timer.Counting {
		t.Fatalf("state = %s, want timer", s.State.Kind)
	}
	if s.State.Progress < 0 || s.State.Progress > s.State.Duration {
		t.Errorf("progress %d outside [0, %d]", s.State.Progress, s.State.Duration)
	}
}
