package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/intervals/internal/config"
	"github.com/npratt/intervals/internal/controller"
	"github.com/npratt/intervals/internal/daemon"
	"github.com/npratt/intervals/internal/display"
	"github.com/npratt/intervals/internal/events"
	"github.com/npratt/intervals/internal/exec"
	"github.com/npratt/intervals/internal/program"
	"github.com/npratt/intervals/internal/shutdown"
	"github.com/npratt/intervals/internal/timer"
	"github.com/npratt/intervals/internal/tui"
	"github.com/npratt/intervals/internal/webhub"
)

const (
	shutdownTimeout = 10 * time.Second
	tuiEventBuffer  = 5000
)

// runOptions are the run command's mode flags after resolution.
type runOptions struct {
	daemon    bool
	tui       bool
	autoStart bool
	once      bool
}

// loadRunConfig loads config and applies the run command's overrides.
func loadRunConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if len(args) > 0 {
		cfg.Timer.ProgramFile = args[0]
	}
	if cmd.Flags().Changed(FlagLogFile) {
		cfg.Paths.Log = viper.GetString(FlagLogFile)
	}
	if cmd.Flags().Changed(FlagSocketPath) {
		cfg.Paths.Socket = viper.GetString(FlagSocketPath)
	}
	if cmd.Flags().Changed(FlagTick) {
		cfg.Timer.TickInterval = viper.GetDuration(FlagTick)
	}
	if cmd.Flags().Changed(FlagWebAddr) {
		cfg.Web.Addr = viper.GetString(FlagWebAddr)
	}
	if cmd.Flags().Changed(FlagNoBell) && viper.GetBool(FlagNoBell) {
		cfg.Display.Bell = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolveRunOptions picks the front end. The TUI is used only in the
// foreground on a terminal, and never with --headless.
func resolveRunOptions(daemonMode, headless, isTTY bool) (runOptions, error) {
	if daemonMode && headless {
		return runOptions{}, fmt.Errorf("--%s and --%s flags are incompatible", FlagDaemon, FlagHeadless)
	}
	return runOptions{
		daemon:    daemonMode,
		tui:       !daemonMode && !headless && isTTY,
		autoStart: viper.GetBool(FlagAutoStart),
		once:      viper.GetBool(FlagOnce),
	}, nil
}

func runTimer(cmd *cobra.Command, args []string, logger *slog.Logger, logLevel *slog.LevelVar) error {
	if viper.GetBool(FlagVerbose) {
		logLevel.Set(slog.LevelDebug)
		logger.Debug("verbose logging enabled")
	}

	opts, err := resolveRunOptions(
		viper.GetBool(FlagDaemon),
		viper.GetBool(FlagHeadless),
		term.IsTerminal(int(os.Stdout.Fd())),
	)
	if err != nil {
		return err
	}

	cfg, err := loadRunConfig(cmd, args)
	if err != nil {
		return err
	}

	prog, err := cfg.LoadProgram()
	if err != nil {
		return err
	}

	projectRoot := daemon.FindProjectRoot("")
	cfg.Paths, err = daemon.ResolvePaths(cfg.Paths, projectRoot)
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}

	client := daemon.NewClient(cfg.Paths.Socket)
	if client.IsRunning() {
		return fmt.Errorf("daemon already running (socket: %s)", cfg.Paths.Socket)
	}

	if opts.daemon {
		shouldExit, _, err := daemon.Daemonize(cfg, cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("daemonize: %w", err)
		}
		if shouldExit {
			return nil
		}
	}

	for _, p := range []string{cfg.Paths.Log, cfg.Paths.Socket, cfg.Paths.PID} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("create directory for %s: %w", p, err)
		}
	}

	if opts.daemon && cfg.Paths.PID != "" {
		pidFile := daemon.NewPIDFile(cfg.Paths.PID)
		pidFile.CleanupStale(cfg.Paths.Socket)
		if err := pidFile.Write(); err != nil {
			return fmt.Errorf("write pid file: %w", err)
		}
		defer func() { _ = pidFile.Remove() }()
	}

	logger.Info("intervals starting",
		"version", version,
		"program", prog.Name(),
		"phases", prog.Len(),
		"log_file", cfg.Paths.Log,
		"socket", cfg.Paths.Socket,
		"daemon_mode", opts.daemon,
		"tui", opts.tui,
	)

	infoPath := daemon.DaemonInfoPath(projectRoot)
	if err := daemon.WriteDaemonInfo(infoPath, &daemon.DaemonInfo{
		SocketPath: cfg.Paths.Socket,
		PIDPath:    cfg.Paths.PID,
		LogPath:    cfg.Paths.Log,
		Program:    prog.Name(),
		StartTime:  time.Now(),
		PID:        os.Getpid(),
	}); err != nil {
		logger.Warn("failed to write daemon info", "error", err)
	}
	defer func() { _ = daemon.RemoveDaemonInfo(infoPath) }()

	// In TUI mode the logger moves to a file before anything else logs.
	ctrlLogger := logger
	if opts.tui {
		tuiLog, err := SetupTUILogger(filepath.Dir(cfg.Paths.Log), logLevel, cfg.LogRotation)
		if err != nil {
			return err
		}
		defer func() { _ = tuiLog.Close() }()
		ctrlLogger = tuiLog.Logger
		slog.SetDefault(ctrlLogger)
	}

	return newSession(cfg, prog, opts, ctrlLogger, cmd.OutOrStdout()).run(cmd.Context())
}

// session holds everything one run command wires together.
type session struct {
	cfg    *config.Config
	opts   runOptions
	logger *slog.Logger
	out    io.Writer

	router  *events.Router
	logSink *events.LogSink
	ctrl    *controller.Controller
}

func newSession(cfg *config.Config, prog *program.Program, opts runOptions, logger *slog.Logger, out io.Writer) *session {
	router := events.NewRouter(events.DefaultBufferSize, events.WithRouterLogger(logger))

	// A detached daemon has no terminal to ring.
	bell := display.NewBell(out, cfg.Display.Bell && !opts.daemon)

	fsm := timer.New(prog, timer.WithMaxEntrySteps(cfg.Timer.MaxEntrySteps))
	ctrl := controller.New(fsm, router, logger,
		controller.WithTickInterval(cfg.Timer.TickInterval),
		controller.WithBell(bell),
	)

	return &session{
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		out:     out,
		router:  router,
		logSink: events.NewLogSink(cfg.Paths.Log, logger),
		ctrl:    ctrl,
	}
}

// run blocks until the controller stops.
func (s *session) run(ctx context.Context) error {
	sinkCtx, sinkCancel := context.WithCancel(ctx)
	defer sinkCancel()

	if s.cfg.Paths.Log != "" {
		if err := s.logSink.Start(sinkCtx, s.router.Subscribe()); err != nil {
			return fmt.Errorf("start log sink: %w", err)
		}
		defer func() { _ = s.logSink.Stop() }()
	}
	defer s.router.Close()

	// Subscribe front ends before the controller emits its first event.
	var tuiEvents, printEvents, runEvents <-chan events.Event
	switch {
	case s.opts.tui:
		tuiEvents = s.router.SubscribeBuffered(tuiEventBuffer)
	case !s.opts.daemon:
		printEvents = s.router.Subscribe()
	}
	if s.opts.once && !s.opts.tui {
		runEvents = s.router.Subscribe()
	}

	var background []func()
	if s.cfg.Display.CueCommand != "" {
		hook, err := exec.NewHook(s.cfg.Display.CueCommand, exec.NewExecRunner(0), s.logger)
		if err != nil {
			return err
		}
		cueEvents := s.router.Subscribe()
		hookCtx, hookCancel := context.WithCancel(ctx)
		go hook.Run(hookCtx)
		go playCues(cueEvents, hook)
		background = append(background, hookCancel)
		s.logger.Info("cue hook enabled", "hook", hook.String())
	}

	if s.cfg.Web.Addr != "" {
		hub := webhub.NewHub(s.ctrl, s.logger)
		hubEvents := s.router.Subscribe()
		hubCtx, hubCancel := context.WithCancel(ctx)
		hubDone := make(chan struct{})
		go hub.Run(hubCtx, hubEvents)
		go func() {
			defer close(hubDone)
			if err := hub.ListenAndServe(hubCtx, s.cfg.Web.Addr); err != nil {
				s.logger.Error("web hub error", "error", err)
			}
		}()
		background = append(background, func() {
			hubCancel()
			<-hubDone
		})
	}

	dmn := daemon.New(s.cfg, s.ctrl, s.logger)
	daemonCtx, daemonCancel := context.WithCancel(ctx)
	daemonDone := make(chan struct{})
	go func() {
		defer close(daemonDone)
		if err := dmn.Start(daemonCtx); err != nil {
			s.logger.Error("daemon server error", "error", err)
		}
	}()
	background = append(background, func() {
		daemonCancel()
		<-daemonDone
	})
	stopBackground := func() {
		for _, stop := range background {
			stop()
		}
	}
	defer stopBackground()

	if s.opts.autoStart {
		s.ctrl.Post(timer.Start)
	}

	if s.opts.tui {
		app := tui.New(tuiEvents,
			tui.WithController(s.ctrl),
			tui.WithOnQuit(s.ctrl.Stop),
			tui.WithShowProgram(s.cfg.Display.ShowProgram),
		)

		ctrlDone := make(chan error, 1)
		go func() { ctrlDone <- s.ctrl.Run(ctx) }()

		tuiErr := app.Run()

		s.ctrl.Stop()
		ctrlErr := <-ctrlDone
		stopBackground()
		if tuiErr != nil {
			return tuiErr
		}
		return ctrlErr
	}

	if printEvents != nil {
		go printRun(s.out, printEvents)
	}
	if runEvents != nil {
		go stopAfterRun(runEvents, s.ctrl.Stop)
	}

	return shutdown.RunWithGracefulShutdown(
		ctx,
		s.logger,
		shutdownTimeout,
		s.ctrl.Run,
		func(context.Context) error {
			s.ctrl.Stop()
			stopBackground()
			return nil
		},
	)
}

// printRun writes one line per event for headless runs.
func printRun(w io.Writer, ch <-chan events.Event) {
	for ev := range ch {
		if events.Format(ev) != "" {
			_, _ = fmt.Fprintln(w, events.FormatWithTimestamp(ev))
		}
	}
}

// stopAfterRun calls stop once the first run has ended, then drains ch.
func stopAfterRun(ch <-chan events.Event, stop func()) {
	for ev := range ch {
		if _, ok := ev.(*events.RunEndEvent); ok && stop != nil {
			stop()
			stop = nil
		}
	}
}

// playCues feeds the cues of every timer output to hook.
func playCues(ch <-chan events.Event, hook *exec.Hook) {
	for ev := range ch {
		if out, ok := ev.(*events.OutputEvent); ok {
			hook.Play(display.Cues(out.Output))
		}
	}
}
