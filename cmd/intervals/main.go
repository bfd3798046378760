package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/intervals/internal/config"
	"github.com/npratt/intervals/internal/daemon"
	initcmd "github.com/npratt/intervals/internal/init"
	"github.com/npratt/intervals/internal/program"
	"github.com/npratt/intervals/internal/timer"
)

var version = "dev"

// inputHelp describes the inputs exposed as subcommands. Step is driven by
// the controller's ticker and has no command.
var inputHelp = map[timer.Input]string{
	timer.Start:   "Start the program from its first phase",
	timer.Stop:    "Stop the program and reset its variables",
	timer.Pause:   "Pause the running countdown",
	timer.Resume:  "Resume a paused countdown",
	timer.Reset:   "Restart the current countdown from zero",
	timer.Skip:    "Skip to the next phase",
	timer.Receive: "Continue past an input phase",
}

// getDaemonClient finds the running daemon through --socket-path or the
// project's daemon.json.
func getDaemonClient() (*daemon.Client, error) {
	if sock := viper.GetString(FlagSocketPath); sock != "" {
		return daemon.NewClient(sock), nil
	}
	info, err := daemon.FindDaemonInfo("")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", daemon.ErrNotRunning, err)
	}
	return daemon.NewClient(info.SocketPath), nil
}

// eventLogPath prefers the running daemon's log, then the configured one.
func eventLogPath() string {
	if info, err := daemon.FindDaemonInfo(""); err == nil && info.LogPath != "" {
		return info.LogPath
	}

	logPath := config.Default().Paths.Log
	if cfg, err := config.LoadConfig(viper.GetViper()); err == nil {
		logPath = cfg.Paths.Log
	}
	if p := viper.GetString(FlagLogFile); p != "" {
		logPath = p
	}
	resolved, err := daemon.ResolvePaths(config.PathsConfig{Log: logPath}, daemon.FindProjectRoot(""))
	if err != nil {
		return logPath
	}
	return resolved.Log
}

func newInputCommand(in timer.Input) *cobra.Command {
	return &cobra.Command{
		Use:   in.String(),
		Short: inputHelp[in],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			resp, err := client.Send(in)
			if err != nil {
				return err
			}
			if viper.GetBool(FlagJSON) {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printOutput(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func newRootCommand(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "intervals",
		Short: "Phase-sequenced interval timer",
		Long: `intervals runs a timer program: a list of countdowns, input pauses,
repeats and counter updates, stepped once per second.

Run a program in the foreground with a terminal UI, headless, or as a
background daemon that the other commands control over a Unix socket.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .intervals/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Event log file path")
	rootCmd.PersistentFlags().String(FlagSocketPath, "", "Unix socket path for daemon control")
	rootCmd.PersistentFlags().Bool(FlagJSON, false, "Output as JSON")

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "intervals %s\n", version)
		},
	}

	runCmd := &cobra.Command{
		Use:   "run [program.yaml]",
		Short: "Run a timer program",
		Long: `Run a timer program. Without a file the configured timer.program_file
is used, or the built-in "rounds" program when none is set.

A terminal UI is shown when stdout is a TTY. Use --headless for plain event
lines, or --daemon to run in the background.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimer(cmd, args, logger, logLevel)
		},
	}

	runCmd.Flags().Bool(FlagHeadless, false, "Print events instead of showing the terminal UI")
	runCmd.Flags().Bool(FlagDaemon, false, "Run as a background daemon")
	runCmd.Flags().Bool(FlagAutoStart, false, "Start the program immediately")
	runCmd.Flags().Bool(FlagOnce, false, "Exit after the first run ends (headless and daemon modes)")
	runCmd.Flags().Duration(FlagTick, 0, "Wall time per timer step (default from config, 1s)")
	runCmd.Flags().String(FlagWebAddr, "", "Serve the websocket hub on this address")
	runCmd.Flags().Bool(FlagNoBell, false, "Do not ring the terminal bell on cues")
	runCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and timer status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			status, err := client.Status()
			if err != nil {
				return err
			}
			if viper.GetBool(FlagJSON) {
				return printJSON(cmd.OutOrStdout(), status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}

	outlineCmd := &cobra.Command{
		Use:   "outline",
		Short: "List the running program's phases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			steps, err := client.Outline()
			if err != nil {
				return err
			}
			if viper.GetBool(FlagJSON) {
				return printJSON(cmd.OutOrStdout(), steps)
			}
			printOutline(cmd.OutOrStdout(), steps)
			return nil
		},
	}

	shutdownCmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Stop the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getDaemonClient()
			if err != nil {
				return err
			}
			// shutdown and init both define --force, so read it per command
			force, _ := cmd.Flags().GetBool(FlagForce)
			if err := client.Shutdown(force); err != nil {
				return err
			}
			if force {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Shutdown requested - daemon stopping immediately")
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Shutdown requested")
			}
			return nil
		},
	}
	shutdownCmd.Flags().Bool(FlagForce, false, "Close the socket without waiting for the reply to flush")

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "View recent events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logPath := eventLogPath()
			if viper.GetBool(FlagFollow) {
				return tailFollow(cmd.Context(), cmd.OutOrStdout(), logPath)
			}
			return tailLast(cmd.OutOrStdout(), logPath, viper.GetInt(FlagCount))
		},
	}
	eventsCmd.Flags().Bool(FlagFollow, false, "Follow event stream (like tail -f)")
	eventsCmd.Flags().Int(FlagCount, 20, "Number of recent events to show")
	eventsCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	validateCmd := &cobra.Command{
		Use:   "validate <program.yaml>",
		Short: "Check a program file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := program.LoadFile(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d phases, %d variables)\n", p.Name(), p.Len(), len(p.Initial()))
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config and sample programs",
		Long: `Write a starter configuration for intervals.

Creates the following structure:
  .intervals/
    config.yaml
    programs/
      rounds.yaml (unless --minimal)
      tabata.yaml (unless --minimal)

Existing files that differ are shown as a diff and left alone unless
--force is given, which keeps a timestamped backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool(FlagForce)
			opts := initcmd.Options{
				DryRun:  viper.GetBool(FlagDryRun),
				Force:   force,
				Minimal: viper.GetBool(FlagMinimal),
				Global:  viper.GetBool(FlagGlobal),
				Writer:  cmd.OutOrStdout(),
			}
			if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
				opts.Confirm = initcmd.PromptConfirm
			}
			_, err := initcmd.Run(opts)
			return err
		},
	}
	initCmd.Flags().Bool(FlagDryRun, false, "Show what would be changed without making changes")
	initCmd.Flags().Bool(FlagForce, false, "Overwrite changed files (creates timestamped backups)")
	initCmd.Flags().Bool(FlagMinimal, false, "Write only config.yaml")
	initCmd.Flags().Bool(FlagGlobal, false, "Write to ~/.config/intervals/ instead of ./.intervals/")
	initCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	rootCmd.AddCommand(versionCmd, runCmd, statusCmd, outlineCmd, shutdownCmd, eventsCmd, validateCmd, initCmd)
	for _, in := range timer.Inputs() {
		if in == timer.Step {
			continue
		}
		rootCmd.AddCommand(newInputCommand(in))
	}

	return rootCmd
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	viper.SetEnvPrefix("INTERVALS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd := newRootCommand(logger, logLevel)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
