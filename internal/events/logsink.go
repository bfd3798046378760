package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink consumes events from the router.
type Sink interface {
	Start(ctx context.Context, events <-chan Event) error
	Stop() error
}

// largeLogThreshold is the size above which rotation warns about old backups.
const largeLogThreshold = 100 * 1024 * 1024

// LogSink writes events as JSON lines. The file it produces is what
// `intervals events` reads back through ParseEvent.
type LogSink struct {
	path    string
	logger  *slog.Logger
	file    *os.File
	encoder *json.Encoder
	written int
	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// NewLogSink creates a LogSink for path. A nil logger uses slog.Default().
func NewLogSink(path string, logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{
		path:   path,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start opens the log file and consumes events until ctx is canceled or the
// channel is closed.
func (s *LogSink) Start(ctx context.Context, events <-chan Event) error {
	if err := s.openFile(); err != nil {
		return err
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go s.run(ctx, events)
	return nil
}

func (s *LogSink) openFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	if err := s.rotateExistingLog(); err != nil {
		return err
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	s.mu.Lock()
	s.file = file
	s.encoder = json.NewEncoder(file)
	s.mu.Unlock()

	return nil
}

// rotateExistingLog moves a non-empty log aside so each process starts a
// fresh file that `tail -f` can follow.
func (s *LogSink) rotateExistingLog() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat log file: %w", err)
	}

	if info.Size() == 0 {
		return nil
	}

	if info.Size() > largeLogThreshold {
		s.logger.Warn("large event log, consider removing old .bak files",
			"size_mb", info.Size()/(1024*1024),
			"dir", filepath.Dir(s.path),
		)
	}

	bakPath := fmt.Sprintf("%s.%s.bak", s.path, time.Now().Format("2006-01-02T15-04-05"))
	if err := os.Rename(s.path, bakPath); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	s.logger.Debug("rotated event log", "backup", bakPath)

	return nil
}

func (s *LogSink) run(ctx context.Context, events <-chan Event) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.write(event)
		}
	}
}

func (s *LogSink) write(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder == nil {
		return
	}

	if err := s.encoder.Encode(event); err != nil {
		s.logger.Error("event log write failed", "event_type", event.Type(), "error", err)
		return
	}
	s.written++
}

// Written returns how many events have been written.
func (s *LogSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Stop waits for the consumer goroutine and closes the file. It is safe to
// call on a sink that never started.
func (s *LogSink) Stop() error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		s.encoder = nil
		return err
	}
	return nil
}

// Path returns the log file path.
func (s *LogSink) Path() string {
	return s.path
}
