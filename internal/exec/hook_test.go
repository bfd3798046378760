package exec

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/npratt/intervals/internal/display"
)

type call struct {
	name string
	args []string
}

// recordingRunner records commands and fails any whose name is in fail.
type recordingRunner struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]bool
	block chan struct{}
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{name: name, args: args})
	if r.fail[name] {
		return []byte("boom"), errors.New("exit status 1")
	}
	return nil, nil
}

func (r *recordingRunner) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func runHook(t *testing.T, h *Hook) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewHook_Empty(t *testing.T) {
	for _, cmd := range []string{"", "   "} {
		if _, err := NewHook(cmd, &recordingRunner{}, nil); !errors.Is(err, ErrEmptyCommand) {
			t.Errorf("NewHook(%q) error = %v, want ErrEmptyCommand", cmd, err)
		}
	}
}

func TestHook_Command(t *testing.T) {
	h, err := NewHook("paplay --volume 40000 sounds/{cue}.oga {asset}", &recordingRunner{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	name, args := h.Command(display.CueTimerDone)
	if name != "paplay" {
		t.Errorf("name = %q", name)
	}
	want := []string{"--volume", "40000", "sounds/Timer-Done.oga", "assets/Timer-Done-Sound.mp3"}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Errorf("args = %q, want %q", args, want)
	}
}

func TestHook_CommandQuoting(t *testing.T) {
	h, err := NewHook(`paplay "/home/me/My Sounds/{asset}" --client-name='interval timer'`, &recordingRunner{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	name, args := h.Command(display.CueTimerDone)
	if name != "paplay" {
		t.Errorf("name = %q", name)
	}
	want := []string{"/home/me/My Sounds/assets/Timer-Done-Sound.mp3", "--client-name=interval timer"}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Errorf("args = %q, want %q", args, want)
	}
}

func TestNewHook_UnterminatedQuote(t *testing.T) {
	_, err := NewHook(`paplay "My Sounds/{asset}`, &recordingRunner{}, nil)
	if err == nil {
		t.Fatal("NewHook should reject an unterminated quote")
	}
	if errors.Is(err, ErrEmptyCommand) {
		t.Errorf("error = %v, want a parse error", err)
	}
}

func TestHook_PlaysInOrder(t *testing.T) {
	runner := &recordingRunner{}
	h, err := NewHook("play {cue}", runner, nil)
	if err != nil {
		t.Fatal(err)
	}
	runHook(t, h)

	h.Play([]display.Cue{display.CueProgramStart, display.CuePause})
	h.Play([]display.Cue{display.CueResume})

	waitFor(t, func() bool { return h.Played() == 3 })

	var got []string
	for _, c := range runner.Calls() {
		got = append(got, c.args[0])
	}
	if strings.Join(got, ",") != "Program-Start,Pause,Resume" {
		t.Errorf("played %v", got)
	}
}

func TestHook_FailureIsLoggedNotFatal(t *testing.T) {
	runner := &recordingRunner{fail: map[string]bool{"broken": true}}
	h, err := NewHook("broken {cue}", runner, nil)
	if err != nil {
		t.Fatal(err)
	}
	runHook(t, h)

	h.Play([]display.Cue{display.CueSkip, display.CueSkip})
	waitFor(t, func() bool { return len(runner.Calls()) == 2 })

	if h.Played() != 0 {
		t.Errorf("Played = %d, want 0 for failing commands", h.Played())
	}
}

func TestHook_DropsWhenBusy(t *testing.T) {
	runner := &recordingRunner{block: make(chan struct{})}
	h, err := NewHook("play {cue}", runner, nil)
	if err != nil {
		t.Fatal(err)
	}

	// not running yet, so the queue fills up
	cues := make([]display.Cue, hookQueueSize+5)
	h.Play(cues)
	if h.Dropped() != 5 {
		t.Errorf("Dropped = %d, want 5", h.Dropped())
	}

	close(runner.block)
	runHook(t, h)
	waitFor(t, func() bool { return h.Played() == hookQueueSize })
}
