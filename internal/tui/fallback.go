package tui

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/npratt/intervals/internal/events"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// terminalTooSmall returns true if the terminal is below the minimum size.
func terminalTooSmall() bool {
	width, height := terminalSize()
	return width < minWidth || height < minHeight
}

// runSimple prints one line per event until the channel closes or the
// process is interrupted. Keys are not read in this mode.
func (t *TUI) runSimple() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return printEvents(os.Stdout, t.eventChan, sigChan)
}

// printEvents writes formatted events to w until events closes or stop fires.
func printEvents(w io.Writer, ch <-chan events.Event, stop <-chan os.Signal) error {
	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if events.Format(event) == "" {
				continue
			}
			if _, err := fmt.Fprintln(w, events.FormatWithTimestamp(event)); err != nil {
				return fmt.Errorf("write event: %w", err)
			}
		}
	}
}
