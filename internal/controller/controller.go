// Package controller runs one timer program. A single loop owns the FSM and
// the one-second ticker, so external inputs and ticks are applied strictly
// one at a time.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/npratt/intervals/internal/display"
	"github.com/npratt/intervals/internal/events"
	"github.com/npratt/intervals/internal/program"
	"github.com/npratt/intervals/internal/timer"
)

// State represents the controller loop's state.
type State string

// Controller states.
const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Defaults.
const (
	DefaultTickInterval = time.Second
	DefaultQueueSize    = 64
)

var (
	// ErrStopped is returned by Apply once the loop has exited.
	ErrStopped = errors.New("controller stopped")
	// ErrAlreadyRunning is returned by a second Run call.
	ErrAlreadyRunning = errors.New("controller already running")
)

// request is one input waiting for the loop. reply is nil for Post.
// toggle picks Pause or Resume from the FSM state when the loop gets to it.
type request struct {
	input  timer.Input
	toggle bool
	reply  chan timer.Output
}

// Step is one entry of the program outline shown by front ends.
type Step struct {
	Index int           `json:"index"`
	Phase program.Phase `json:"phase"`
	Label string        `json:"label,omitempty"`
}

// Status is a point-in-time copy of the controller and its FSM.
type Status struct {
	Controller State         `json:"controller"`
	Program    string        `json:"program"`
	Phases     int           `json:"phases"`
	State      timer.State   `json:"state"`
	Cursor     int           `json:"cursor"`
	Phase      program.Phase `json:"phase"`
	Label      string        `json:"label,omitempty"`
	Text       string        `json:"text"`
	Variables  []int         `json:"variables"`
	RunID      string        `json:"run_id,omitempty"`
	RunStarted time.Time     `json:"run_started,omitzero"`
	Updated    time.Time     `json:"updated"`
	Stalled    bool          `json:"stalled,omitempty"`
}

// Controller serializes inputs to one FSM and drives its countdowns.
type Controller struct {
	fsm    *timer.FSM
	router *events.Router
	logger *slog.Logger
	bell   *display.Bell
	tick   time.Duration
	queue  int

	outline []Step

	requests   chan request
	stopSignal chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	state   State
	stateMu sync.RWMutex

	status   Status
	statusMu sync.RWMutex

	// owned by the loop
	ticker     *time.Ticker
	tickC      <-chan time.Time
	text       string
	runID      string
	runStarted time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithTickInterval sets the wall time between Step inputs. Non-positive
// values keep DefaultTickInterval.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithQueueSize sets how many inputs may wait for the loop.
func WithQueueSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.queue = n
		}
	}
}

// WithBell rings b for every output that carries cues.
func WithBell(b *display.Bell) Option {
	return func(c *Controller) {
		c.bell = b
	}
}

// New creates a Controller that owns fsm. router may be nil.
func New(fsm *timer.FSM, router *events.Router, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		fsm:        fsm,
		router:     router,
		logger:     logger,
		tick:       DefaultTickInterval,
		queue:      DefaultQueueSize,
		stopSignal: make(chan struct{}),
		done:       make(chan struct{}),
		state:      StateIdle,
		text:       display.ReadyText,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.requests = make(chan request, c.queue)

	p := fsm.Program()
	for i, ph := range p.Phases() {
		c.outline = append(c.outline, Step{Index: i, Phase: ph, Label: p.Label(i)})
	}
	c.publishStatus()
	return c
}

// Run applies inputs and ticks until ctx is canceled or Stop is called.
// It returns nil on a clean shutdown.
func (c *Controller) Run(ctx context.Context) error {
	c.stateMu.Lock()
	if c.state != StateIdle {
		c.stateMu.Unlock()
		return ErrAlreadyRunning
	}
	c.state = StateRunning
	c.stateMu.Unlock()
	c.publishStatus()

	p := c.fsm.Program()
	c.emit(&events.ControllerStartEvent{
		BaseEvent: events.NewControllerEvent(events.EventControllerStart),
		Program:   p.Name(),
		Phases:    p.Len(),
	})
	c.logger.Info("controller started", "program", p.Name(), "phases", p.Len(), "tick", c.tick)

	for {
		select {
		case <-ctx.Done():
			return c.shutdown("context cancelled")
		case <-c.stopSignal:
			return c.shutdown("stop requested")
		case req := <-c.requests:
			in := req.input
			if req.toggle {
				in = c.toggleInput()
			}
			out := c.apply(in)
			if req.reply != nil {
				req.reply <- out
			}
		case <-c.tickC:
			c.apply(timer.Step)
		}
	}
}

// Apply queues in and waits for its output.
func (c *Controller) Apply(ctx context.Context, in timer.Input) (timer.Output, error) {
	reply := make(chan timer.Output, 1)

	select {
	case c.requests <- request{input: in, reply: reply}:
	case <-c.done:
		return timer.Output{}, ErrStopped
	case <-ctx.Done():
		return timer.Output{}, ctx.Err()
	}

	select {
	case out := <-reply:
		return out, nil
	case <-c.done:
		select {
		case out := <-reply:
			return out, nil
		default:
			return timer.Output{}, ErrStopped
		}
	case <-ctx.Done():
		return timer.Output{}, ctx.Err()
	}
}

// Post queues in without waiting. It reports false when the queue is full or
// the controller has stopped.
func (c *Controller) Post(in timer.Input) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	return c.enqueue(request{input: in})
}

// TogglePause queues Pause, or Resume if the timer is paused when the loop
// reaches the request.
func (c *Controller) TogglePause() bool {
	select {
	case <-c.done:
		return false
	default:
	}
	return c.enqueue(request{toggle: true})
}

func (c *Controller) enqueue(req request) bool {
	select {
	case c.requests <- req:
		return true
	default:
		if req.toggle {
			c.logger.Warn("input dropped: queue full", "input", "pause/resume")
		} else {
			c.logger.Warn("input dropped: queue full", "input", req.input)
		}
		return false
	}
}

// toggleInput runs on the loop goroutine only.
func (c *Controller) toggleInput() timer.Input {
	if c.fsm.State().Paused {
		return timer.Resume
	}
	return timer.Pause
}

// Stop asks the loop to exit. It returns immediately; Done is closed once
// the loop has finished.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopSignal) })
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// State returns the loop state.
func (c *Controller) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Snapshot returns the latest status. It is safe to call from any goroutine.
func (c *Controller) Snapshot() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	s := c.status
	s.Variables = slices.Clone(c.status.Variables)
	s.Controller = c.State()
	return s
}

// Outline returns the program's phases with their labels.
func (c *Controller) Outline() []Step {
	return slices.Clone(c.outline)
}

// TickInterval returns the wall time between Step inputs.
func (c *Controller) TickInterval() time.Duration {
	return c.tick
}

// apply runs on the loop goroutine only.
func (c *Controller) apply(in timer.Input) timer.Output {
	out := c.fsm.Apply(in)
	c.drive(out)

	if out.Kind == timer.PhaseChange && in == timer.Start {
		c.beginRun()
	}

	c.text = display.Text(c.text, out)

	if out.Kind == timer.NoChange {
		c.logger.Debug("input ignored", "input", in, "state", c.fsm.State().Kind)
	} else {
		c.logger.Debug("timer output",
			"input", in,
			"output", out.String(),
			"cursor", c.fsm.Cursor(),
		)
		c.emit(&events.OutputEvent{
			BaseEvent: events.NewControllerEvent(events.EventTimerOutput),
			RunID:     c.runID,
			Input:     in,
			Output:    out,
			State:     c.fsm.State(),
			Cursor:    c.fsm.Cursor(),
			Label:     c.fsm.Program().Label(c.fsm.Cursor()),
			Text:      c.text,
		})
		if c.bell != nil {
			if err := c.bell.Ring(display.Cues(out)); err != nil {
				c.logger.Debug("bell failed", "error", err)
			}
		}
	}

	switch {
	case out.Kind == timer.PhaseChange && out.Next.Kind == program.KindEndProgram:
		if c.fsm.Stalled() {
			c.reportStall()
			c.endRun(events.RunStalled)
		} else {
			c.endRun(events.RunCompleted)
		}
	case out.Kind == timer.ProgramStopped:
		c.endRun(events.RunStopped)
	}

	c.publishStatus()
	return out
}

// drive starts or stops the ticker for out.
func (c *Controller) drive(out timer.Output) {
	switch display.Driver(out) {
	case display.DriverStart:
		if c.ticker == nil {
			c.ticker = time.NewTicker(c.tick)
		} else {
			c.ticker.Reset(c.tick)
		}
		c.tickC = c.ticker.C
	case display.DriverStop:
		c.stopTicker()
	}
}

func (c *Controller) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	c.tickC = nil
}

func (c *Controller) beginRun() {
	c.runID = uuid.NewString()
	c.runStarted = time.Now()

	p := c.fsm.Program()
	c.logger.Info("run started", "run_id", c.runID, "program", p.Name())
	c.emit(&events.RunStartEvent{
		BaseEvent: events.NewControllerEvent(events.EventRunStart),
		RunID:     c.runID,
		Program:   p.Name(),
	})
}

func (c *Controller) endRun(reason string) {
	if c.runID == "" {
		return
	}
	elapsed := time.Since(c.runStarted)

	c.logger.Info("run ended", "run_id", c.runID, "reason", reason, "duration", elapsed)
	c.emit(&events.RunEndEvent{
		BaseEvent:  events.NewControllerEvent(events.EventRunEnd),
		RunID:      c.runID,
		Reason:     reason,
		DurationMs: elapsed.Milliseconds(),
	})

	c.runID = ""
	c.runStarted = time.Time{}
}

func (c *Controller) reportStall() {
	msg := "program did not reach a countdown or input phase; run ended"
	c.logger.Warn(msg, "run_id", c.runID)
	c.emit(&events.ErrorEvent{
		BaseEvent: events.NewControllerEvent(events.EventError),
		Message:   msg,
		Severity:  events.SeverityWarning,
		Context:   map[string]string{"run_id": c.runID},
	})
}

func (c *Controller) publishStatus() {
	p := c.fsm.Program()
	cursor := c.fsm.Cursor()

	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status = Status{
		Program:    p.Name(),
		Phases:     p.Len(),
		State:      c.fsm.State(),
		Cursor:     cursor,
		Phase:      c.fsm.Current(),
		Label:      p.Label(cursor),
		Text:       c.text,
		Variables:  p.Variables(),
		RunID:      c.runID,
		RunStarted: c.runStarted,
		Updated:    time.Now(),
		Stalled:    c.fsm.Stalled(),
	}
}

// shutdown ends an active run and marks the loop stopped.
func (c *Controller) shutdown(reason string) error {
	c.logger.Info("shutting down", "reason", reason)

	c.stopTicker()
	if c.runID != "" {
		c.apply(timer.Stop)
	}

	c.stateMu.Lock()
	c.state = StateStopped
	c.stateMu.Unlock()
	c.publishStatus()

	c.emit(&events.ControllerStopEvent{
		BaseEvent: events.NewControllerEvent(events.EventControllerStop),
		Reason:    reason,
	})
	c.logger.Info("shutdown complete")

	close(c.done)
	return nil
}

// emit sends an event to the router if available.
func (c *Controller) emit(event events.Event) {
	if c.router != nil {
		c.router.Emit(event)
	}
}

// String is used in log lines.
func (s Status) String() string {
	if s.Label != "" {
		return fmt.Sprintf("%s [%d/%d %s] %s", s.State.Kind, s.Cursor, s.Phases, s.Label, s.Text)
	}
	return fmt.Sprintf("%s [%d/%d] %s", s.State.Kind, s.Cursor, s.Phases, s.Text)
}
