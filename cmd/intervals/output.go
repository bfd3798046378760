package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/npratt/intervals/internal/controller"
	"github.com/npratt/intervals/internal/daemon"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printStatus(w io.Writer, status *daemon.StatusResponse) {
	t := status.Timer
	_, _ = fmt.Fprintf(w, "Daemon: %s\n", status.Daemon)
	_, _ = fmt.Fprintf(w, "Uptime: %s\n", status.Uptime)
	_, _ = fmt.Fprintf(w, "Started: %s\n", status.StartTime)
	_, _ = fmt.Fprintf(w, "Program: %s (%d phases)\n", t.Program, t.Phases)
	state := t.State.Kind.String()
	if t.State.Paused {
		state += " (paused)"
	}
	_, _ = fmt.Fprintf(w, "State: %s\n", state)
	_, _ = fmt.Fprintf(w, "Phase: %d %s", t.Cursor, t.Phase)
	if t.Label != "" {
		_, _ = fmt.Fprintf(w, " [%s]", t.Label)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Display: %s\n", t.Text)
	if len(t.Variables) > 0 {
		_, _ = fmt.Fprintf(w, "Variables: %v\n", t.Variables)
	}
	if t.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run: %s (started %s)\n", t.RunID, t.RunStarted.Format("15:04:05"))
	}
	if t.Stalled {
		_, _ = fmt.Fprintln(w, "Warning: last run ended without reaching a countdown or input phase")
	}
}

func printOutline(w io.Writer, steps []controller.Step) {
	for _, s := range steps {
		line := fmt.Sprintf("%3d  %s", s.Index, s.Phase)
		if s.Label != "" {
			line += "  # " + s.Label
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

func printOutput(w io.Writer, resp *daemon.OutputResponse) {
	_, _ = fmt.Fprintf(w, "%s: %s\n", resp.Input, resp.Output)
	_, _ = fmt.Fprintf(w, "Display: %s\n", resp.Timer.Text)
}
