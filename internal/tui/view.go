package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/intervals/internal/display"
	"github.com/npratt/intervals/internal/events"
	"github.com/npratt/intervals/internal/program"
	"github.com/npratt/intervals/internal/timer"
)

const (
	minWidth  = 40
	minHeight = 12
)

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	w := safeWidth(m.width - 4) // Account for container borders and padding

	sections := []string{m.renderHeader(w), m.renderDivider(w)}
	if m.showProgram && len(m.outline) > 0 {
		sections = append(sections, m.renderOutline(w), m.renderDivider(w))
	}
	sections = append(sections, m.renderEvents(w), m.renderDivider(w), m.help.View(m.keys))

	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Render(strings.Join(sections, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

// renderTooSmall renders a minimal message for terminals that are too small.
func (m model) renderTooSmall() string {
	return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.\n%s",
		m.width, m.height, minWidth, minHeight, m.status.Text)
}

// renderHeader renders program name, state, clock, label and the countdown bar.
func (m model) renderHeader(w int) string {
	name := events.SafeString(m.status.Program)
	if name == "" {
		name = "intervals"
	}
	title := styles.Program.Render(name)
	state := m.renderState()
	titleLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		title,
		strings.Repeat(" ", max(1, w-lipgloss.Width(title)-lipgloss.Width(state))),
		state,
	)

	clock := styles.Clock.Render(m.status.Text)
	label := ""
	if m.status.Label != "" {
		label = styles.Label.Render(events.SafeString(m.status.Label))
	}
	clockLine := lipgloss.JoinHorizontal(lipgloss.Center, clock, " ", label)

	var bar string
	if m.status.State.Kind == timer.Counting {
		bar = m.progress.ViewAs(m.fraction())
	} else {
		bar = styles.Muted.Render(strings.Repeat("·", max(1, m.progress.Width)))
	}

	runs := styles.Runs.Render(fmt.Sprintf("completed: %d  stopped: %d  stalled: %d",
		m.runs.Completed, m.runs.Stopped, m.runs.Stalled))

	return strings.Join([]string{titleLine, clockLine, bar, runs}, "\n")
}

// renderState renders the execution state with its colour.
func (m model) renderState() string {
	st := m.status.State
	switch {
	case st.Kind == timer.Counting && st.Paused:
		return styles.StatePaused.Render("PAUSED")
	case st.Kind == timer.Counting:
		return styles.StateCounting.Render("COUNTING")
	case st.Kind == timer.Awaiting:
		return styles.StateAwaiting.Render("WAITING FOR INPUT")
	default:
		return styles.StateIdle.Render("IDLE")
	}
}

// renderOutline lists the program with the cursor highlighted.
func (m model) renderOutline(w int) string {
	active := m.status.State.Kind != timer.Idle
	lines := make([]string, 0, len(m.outline))
	for _, step := range m.outline {
		text := fmt.Sprintf("%2d  %-12s %s", step.Index+1, events.Truncate(step.Label, 12), describePhase(step.Phase))
		text = events.Truncate(text, w)
		if active && step.Index == m.status.Cursor {
			lines = append(lines, styles.StepCurrent.Render(text))
		} else {
			lines = append(lines, styles.Step.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

// renderDivider renders a horizontal divider line.
func (m model) renderDivider(w int) string {
	return styles.Divider.Render(strings.Repeat("─", w))
}

// renderEvents renders the most recent event lines.
func (m model) renderEvents(w int) string {
	visible := m.visibleLines()

	if len(m.eventLines) == 0 {
		lines := []string{lipgloss.PlaceHorizontal(w, lipgloss.Center, "Press s to start")}
		for len(lines) < visible {
			lines = append(lines, "")
		}
		return strings.Join(lines, "\n")
	}

	start := max(0, len(m.eventLines)-visible)
	lines := make([]string, 0, visible)
	for _, el := range m.eventLines[start:] {
		lines = append(lines, renderEventLine(el, w))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderEventLine renders a single event with timestamp and styling.
func renderEventLine(el eventLine, maxWidth int) string {
	prefix := el.Time.Format("15:04:05") + " "
	text := events.Truncate(el.Text, max(10, maxWidth-len(prefix)))
	return styles.Muted.Render(prefix) + el.Style.Render(text)
}

// describePhase renders a phase for the outline.
func describePhase(ph program.Phase) string {
	switch ph.Kind {
	case program.KindTimeFor:
		return display.Clock(ph.Duration)
	case program.KindReceiveInput:
		return "wait for input"
	case program.KindRepeat:
		return fmt.Sprintf("repeat from %d (var %d)", ph.ToPhase+1, ph.VarIndex)
	case program.KindOffsetVariable:
		return fmt.Sprintf("var %d %+d", ph.VarIndex, ph.Offset)
	default:
		return ph.String()
	}
}

// safeWidth returns a width that is at least 1 to prevent negative values.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// StyleForEvent returns the appropriate style for an event type.
func StyleForEvent(event events.Event) lipgloss.Style {
	switch e := event.(type) {
	case *events.OutputEvent:
		if e.Output.Kind == timer.ProgramStopped {
			return styles.StatePaused
		}
		return styles.Output
	case *events.RunStartEvent, *events.RunEndEvent:
		return styles.Run
	case *events.ErrorEvent:
		return styles.Error
	default:
		return styles.Muted
	}
}
