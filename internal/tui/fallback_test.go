package tui

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/npratt/intervals/internal/events"
	"github.com/npratt/intervals/internal/timer"
)

func TestPrintEvents(t *testing.T) {
	ch := make(chan events.Event, 4)
	ch <- &events.RunStartEvent{
		BaseEvent: events.NewControllerEvent(events.EventRunStart),
		RunID:     "0123456789abcdef",
		Program:   "rounds",
	}
	ch <- &events.OutputEvent{
		BaseEvent: events.NewControllerEvent(events.EventTimerOutput),
		Input:     timer.Step,
		Output:    timer.Progress(4),
		Text:      "00:00:04",
	}
	close(ch)

	var buf bytes.Buffer
	if err := printEvents(&buf, ch, nil); err != nil {
		t.Fatalf("printEvents() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "run 01234567 started: rounds") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[") || !strings.HasSuffix(lines[1], "00:00:04") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestPrintEvents_Stop(t *testing.T) {
	ch := make(chan events.Event)
	stop := make(chan os.Signal, 1)
	stop <- os.Interrupt

	done := make(chan error, 1)
	go func() { done <- printEvents(&bytes.Buffer{}, ch, stop) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("printEvents() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("printEvents did not return on signal")
	}
}
