package events

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/npratt/intervals/internal/timer"
)

const (
	maxMessageLength  = 100
	maxLabelLength    = 40
	truncateIndicator = "..."
)

// Format converts an event to a human-readable line. It returns "" for nil
// or unknown events.
func Format(event Event) string {
	if event == nil {
		return ""
	}

	switch e := event.(type) {
	case *ControllerStartEvent:
		return formatControllerStart(e)
	case *ControllerStopEvent:
		return formatControllerStop(e)
	case *OutputEvent:
		return formatOutput(e)
	case *RunStartEvent:
		return formatRunStart(e)
	case *RunEndEvent:
		return formatRunEnd(e)
	case *ErrorEvent:
		return formatError(e)
	default:
		return ""
	}
}

// FormatWithTimestamp prefixes Format with the event's wall clock time.
func FormatWithTimestamp(event Event) string {
	if event == nil {
		return ""
	}
	ts := event.Timestamp().Format("15:04:05")
	detail := Format(event)
	if detail == "" {
		return fmt.Sprintf("[%s] %s", ts, event.Type())
	}
	return fmt.Sprintf("[%s] %s", ts, detail)
}

func formatControllerStart(e *ControllerStartEvent) string {
	name := SafeString(e.Program)
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("controller started: %s (%d phases)", name, e.Phases)
}

func formatControllerStop(e *ControllerStopEvent) string {
	if reason := SafeString(e.Reason); reason != "" {
		return fmt.Sprintf("controller stopped: %s", reason)
	}
	return "controller stopped"
}

func formatOutput(e *OutputEvent) string {
	text := SafeString(e.Text)
	out := e.Output

	switch out.Kind {
	case timer.PhaseChange:
		line := fmt.Sprintf("-> %s", out.Next)
		if label := SafeString(e.Label); label != "" {
			line = fmt.Sprintf("-> %s %s", Truncate(label, maxLabelLength), out.Next)
		}
		if !out.Completed {
			line += " (skipped)"
		}
		if text != "" {
			line += ": " + text
		}
		return line
	case timer.TimerProgress:
		return text
	case timer.TimerPaused:
		return "paused"
	case timer.TimerResumed:
		return fmt.Sprintf("resumed at %s", text)
	case timer.TimerReset:
		return fmt.Sprintf("reset to %s", text)
	case timer.ProgramStopped:
		return fmt.Sprintf("stopped during %s", out.Phase)
	default:
		return ""
	}
}

func formatRunStart(e *RunStartEvent) string {
	return fmt.Sprintf("run %s started: %s", ShortID(e.RunID), SafeString(e.Program))
}

func formatRunEnd(e *RunEndEvent) string {
	elapsed := (time.Duration(e.DurationMs) * time.Millisecond).Round(time.Second)
	symbol := "+"
	switch e.Reason {
	case RunStopped:
		symbol = "x"
	case RunStalled:
		symbol = "!"
	}
	return fmt.Sprintf("[%s] run %s %s after %s", symbol, ShortID(e.RunID), SafeString(e.Reason), elapsed)
}

func formatError(e *ErrorEvent) string {
	severity := SafeString(e.Severity)
	if severity == "" {
		severity = SeverityError
	}
	return fmt.Sprintf("%s: %s", strings.ToUpper(severity), Truncate(SafeString(e.Message), maxMessageLength))
}

// ShortID returns the first eight characters of a run ID.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Truncate shortens text to maxLen, adding indicator if truncated.
func Truncate(s string, maxLen int) string {
	s = SafeString(s)
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= len(truncateIndicator) {
		return truncateIndicator
	}
	return s[:maxLen-len(truncateIndicator)] + truncateIndicator
}

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape sequences from a string.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// SafeString sanitizes program names and labels, which come from user files,
// before they reach a terminal.
func SafeString(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == ' ' || !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}

	return strings.TrimSpace(result)
}
