package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/npratt/intervals/internal/events"
)

const (
	filePollInterval = 500 * time.Millisecond
	tailPollInterval = 100 * time.Millisecond
)

// tailLast prints the last n lines of the event log at path.
func tailLast(w io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			_, _ = fmt.Fprintln(w, "No events yet (log file does not exist)")
			return nil
		}
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	if len(lines) == 0 {
		_, _ = fmt.Fprintln(w, "No events yet")
		return nil
	}

	start := 0
	if n > 0 && len(lines) > n {
		start = len(lines) - n
	}
	for _, line := range lines[start:] {
		printEventLine(w, line)
	}
	return nil
}

// waitForFile polls until path exists and returns it opened.
func waitForFile(ctx context.Context, path string) (*os.File, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(filePollInterval):
			file, err := os.Open(path)
			if err == nil {
				return file, nil
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open file: %w", err)
			}
		}
	}
}

// tailFollow prints lines appended to path until ctx is cancelled.
func tailFollow(ctx context.Context, w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("open log file: %w", err)
		}
		_, _ = fmt.Fprintln(w, "Waiting for log file to be created...")
		file, err = waitForFile(ctx, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	_, _ = fmt.Fprintln(w, "Following events (Ctrl+C to stop)...")
	reader := bufio.NewReader(file)
	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// keep a half-written line until its newline arrives
				partial += line
				time.Sleep(tailPollInterval)
				continue
			}
			return fmt.Errorf("read log: %w", err)
		}
		printEventLine(w, strings.TrimSuffix(partial+line, "\n"))
		partial = ""
	}
}

// printEventLine prints one event log line. Lines that are not events are
// printed as-is and unknown event types are skipped.
func printEventLine(w io.Writer, line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	ev, err := events.ParseEvent([]byte(line))
	if err != nil {
		_, _ = fmt.Fprintln(w, line)
		return
	}
	if ev == nil || events.Format(ev) == "" {
		return
	}
	_, _ = fmt.Fprintln(w, events.FormatWithTimestamp(ev))
}
