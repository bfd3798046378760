// Package tui provides a terminal UI for running an interval timer using
// bubbletea.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/intervals/internal/controller"
	"github.com/npratt/intervals/internal/events"
	"github.com/npratt/intervals/internal/timer"
)

// Controller is the part of controller.Controller the TUI drives.
type Controller interface {
	Post(in timer.Input) bool
	TogglePause() bool
	Snapshot() controller.Status
	Outline() []controller.Step
}

// TUI is the terminal UI for one timer program.
type TUI struct {
	eventChan   <-chan events.Event
	ctrl        Controller
	onQuit      func()
	showProgram bool
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI with the given event channel and options.
func New(eventChan <-chan events.Event, opts ...Option) *TUI {
	t := &TUI{
		eventChan:   eventChan,
		showProgram: true,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithController sets where key presses are posted as timer inputs.
func WithController(c Controller) Option {
	return func(t *TUI) {
		t.ctrl = c
	}
}

// WithOnQuit sets the callback invoked when the user presses 'q'.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithShowProgram sets whether the program outline is shown at start.
func WithShowProgram(show bool) Option {
	return func(t *TUI) {
		t.showProgram = show
	}
}

// Run starts the TUI and blocks until it exits. Without a usable terminal it
// prints events line by line instead.
func (t *TUI) Run() error {
	if !isTerminal() || terminalTooSmall() {
		return t.runSimple()
	}

	m := newModel(t.eventChan, t.ctrl, t.onQuit, t.showProgram)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
