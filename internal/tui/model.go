package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/intervals/internal/controller"
	"github.com/npratt/intervals/internal/display"
	"github.com/npratt/intervals/internal/events"
)

// runStats counts finished runs by how they ended.
type runStats struct {
	Completed int
	Stopped   int
	Stalled   int
}

// eventLine represents a formatted event for display.
type eventLine struct {
	Time  time.Time
	Text  string
	Style lipgloss.Style
}

// model is the bubbletea model for the TUI.
type model struct {
	// Event source
	eventChan <-chan events.Event

	// Timer state as last seen
	status  controller.Status
	outline []controller.Step
	runID   string
	runs    runStats

	// Event log
	eventLines []eventLine

	// UI state
	width       int
	height      int
	showProgram bool
	keys        keyMap
	help        help.Model
	progress    progress.Model

	ctrl   Controller
	onQuit func()
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

// newModel creates a new model with the given configuration.
func newModel(eventChan <-chan events.Event, ctrl Controller, onQuit func(), showProgram bool) model {
	m := model{
		eventChan:   eventChan,
		status:      controller.Status{Text: display.ReadyText},
		showProgram: showProgram,
		keys:        defaultKeyMap(),
		help:        help.New(),
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		ctrl:        ctrl,
		onQuit:      onQuit,
	}
	if ctrl != nil {
		m.status = ctrl.Snapshot()
		m.outline = ctrl.Outline()
	}
	m.keys.enableFor(m.status.State)
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.eventChan),
		doTick(),
	)
}

// Update, handleKey, handleEvent, handleTick are implemented in update.go
// View is implemented in view.go

// visibleLines returns the number of event lines that fit below the header
// and outline.
func (m model) visibleLines() int {
	// border (2), header (4), dividers (2), footer (1)
	used := 9
	if m.showProgram {
		used += len(m.outline) + 1
	}
	return max(1, m.height-used)
}

// fraction returns how much of the current countdown has elapsed.
func (m model) fraction() float64 {
	st := m.status.State
	if st.Duration <= 0 {
		return 0
	}
	return float64(st.Duration-st.Progress) / float64(st.Duration)
}
