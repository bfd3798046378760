package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/intervals/internal/events"
	"github.com/npratt/intervals/internal/program"
	"github.com/npratt/intervals/internal/timer"
)

const (
	// maxEventLines is the maximum number of event lines to keep in the buffer.
	maxEventLines = 500
	// trimEventLines is the number of lines to remove when buffer exceeds max.
	trimEventLines = 50
	// syncInterval is how often the model re-reads the controller snapshot.
	syncInterval = 2 * time.Second
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// tickMsg signals a periodic status sync.
type tickMsg time.Time

// waitForEvent creates a command that waits for the next event from the channel.
// Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

// doTick creates a command that waits for the sync interval and sends a tickMsg.
func doTick() tea.Cmd {
	return tea.Tick(syncInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width - 4
		m.progress.Width = max(10, msg.Width-8)
		return m, nil

	case eventMsg:
		m.handleEvent(events.Event(msg))
		return m, waitForEvent(m.eventChan)

	case channelClosedMsg:
		slog.Info("event channel closed, exiting TUI")
		return m, tea.Quit

	case tickMsg:
		m.handleTick()
		return m, doTick()

	default:
		return m, nil
	}
}

// handleKey maps key presses to timer inputs.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Program):
		m.showProgram = !m.showProgram
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Start):
		m.post(timer.Start)
	case key.Matches(msg, m.keys.Pause):
		if m.ctrl != nil && !m.ctrl.TogglePause() {
			slog.Warn("input dropped", "input", "pause/resume")
		}
	case key.Matches(msg, m.keys.Skip):
		m.post(timer.Skip)
	case key.Matches(msg, m.keys.Reset):
		m.post(timer.Reset)
	case key.Matches(msg, m.keys.Input):
		m.post(timer.Receive)
	case key.Matches(msg, m.keys.Stop):
		m.post(timer.Stop)
	}
	return m, nil
}

// post hands an input to the controller. Results come back as events.
func (m *model) post(in timer.Input) {
	if m.ctrl == nil {
		return
	}
	if !m.ctrl.Post(in) {
		slog.Warn("input dropped", "input", in)
	}
}

// handleEvent processes an event and updates model state.
func (m *model) handleEvent(event events.Event) {
	switch e := event.(type) {
	case *events.OutputEvent:
		m.status.State = e.State
		m.status.Cursor = e.Cursor
		m.status.Label = e.Label
		m.status.Text = e.Text
		m.status.Phase = m.phaseAt(e.Cursor)
		if e.Output.Kind == timer.TimerProgress {
			// Ticks only move the clock; keep them out of the log.
			m.keys.enableFor(m.status.State)
			return
		}

	case *events.RunStartEvent:
		m.runID = e.RunID

	case *events.RunEndEvent:
		m.runID = ""
		switch e.Reason {
		case events.RunCompleted:
			m.runs.Completed++
		case events.RunStopped:
			m.runs.Stopped++
		case events.RunStalled:
			m.runs.Stalled++
		}
	}
	m.keys.enableFor(m.status.State)

	text := events.Format(event)
	if text == "" {
		return
	}
	m.eventLines = append(m.eventLines, eventLine{
		Time:  event.Timestamp(),
		Text:  text,
		Style: StyleForEvent(event),
	})
	if len(m.eventLines) > maxEventLines {
		m.eventLines = m.eventLines[trimEventLines:]
	}
}

// phaseAt returns the outline phase at i, or EndProgram past the end.
func (m model) phaseAt(i int) program.Phase {
	if i >= 0 && i < len(m.outline) {
		return m.outline[i].Phase
	}
	return program.EndProgram()
}

// handleTick re-reads the controller so values not carried by events, such
// as the variable bank, stay current.
func (m *model) handleTick() {
	if m.ctrl == nil {
		return
	}
	snap := m.ctrl.Snapshot()
	if snap.State != m.status.State || snap.Cursor != m.status.Cursor {
		slog.Debug("status drift corrected",
			"tui_cursor", m.status.Cursor,
			"controller_cursor", snap.Cursor)
	}
	m.status = snap
	m.keys.enableFor(m.status.State)
}
