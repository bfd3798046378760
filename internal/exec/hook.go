package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/kballard/go-shellquote"

	"github.com/npratt/intervals/internal/display"
)

// Placeholders expanded in each argument of a hook command.
const (
	PlaceholderCue   = "{cue}"
	PlaceholderAsset = "{asset}"
)

const hookQueueSize = 16

// ErrEmptyCommand is returned by NewHook for a blank command line.
var ErrEmptyCommand = errors.New("cue command is empty")

// Hook runs one command per cue, one at a time, in the order cues arrive.
// Cues that arrive while the queue is full are dropped.
type Hook struct {
	argv    []string
	runner  CommandRunner
	logger  *slog.Logger
	queue   chan display.Cue
	played  atomic.Int64
	dropped atomic.Int64
}

// NewHook parses command with shell quoting rules, for example
// `paplay "My Sounds/{asset}"`. A nil logger uses slog.Default().
func NewHook(command string, runner CommandRunner, logger *slog.Logger) (*Hook, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse cue command: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hook{
		argv:   argv,
		runner: runner,
		logger: logger,
		queue:  make(chan display.Cue, hookQueueSize),
	}, nil
}

// Play queues cues without blocking.
func (h *Hook) Play(cues []display.Cue) {
	for _, c := range cues {
		select {
		case h.queue <- c:
		default:
			h.dropped.Add(1)
			h.logger.Debug("cue dropped: hook busy", "cue", c)
		}
	}
}

// Run executes queued cues until ctx is cancelled.
func (h *Hook) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.queue:
			name, args := h.Command(c)
			if out, err := h.runner.Run(ctx, name, args...); err != nil {
				h.logger.Warn("cue command failed",
					"cue", c,
					"command", name,
					"error", err,
					"output", strings.TrimSpace(string(out)),
				)
				continue
			}
			h.played.Add(1)
		}
	}
}

// Command returns the expanded command for c.
func (h *Hook) Command(c display.Cue) (string, []string) {
	r := strings.NewReplacer(PlaceholderCue, c.String(), PlaceholderAsset, c.Asset())
	args := make([]string, len(h.argv)-1)
	for i, a := range h.argv[1:] {
		args[i] = r.Replace(a)
	}
	return r.Replace(h.argv[0]), args
}

// Played returns how many cue commands succeeded.
func (h *Hook) Played() int64 { return h.played.Load() }

// Dropped returns how many cues were dropped.
func (h *Hook) Dropped() int64 { return h.dropped.Load() }

func (h *Hook) String() string {
	return fmt.Sprintf("cue hook %q", shellquote.Join(h.argv...))
}
