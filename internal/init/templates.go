package initcmd

import (
	"fmt"

	"github.com/npratt/intervals/internal/config"
	"github.com/npratt/intervals/internal/program"
)

// configTemplate renders cfg as a commented config.yaml.
func configTemplate(cfg *config.Config) string {
	return fmt.Sprintf(`# intervals configuration
# Precedence: this file < --config file < INTERVALS_* env < flags.

timer:
  # Wall time per step. Countdowns are measured in steps.
  tick_interval: %s
  # Program to run when none is given on the command line.
  # Empty runs the built-in "rounds" program.
  program_file: %q
  # Repeat/offset phases resolved in one input before the run is ended.
  max_entry_steps: %d

paths:
  log: %s
  socket: %s
  pid: %s

log_rotation:
  max_size_mb: %d
  max_backups: %d
  max_age_days: %d
  compress: %t

display:
  bell: %t
  show_program: %t
  # Command run for each cue, e.g. "paplay sounds/{cue}.oga".
  cue_command: %q

web:
  # Listen address for the websocket hub, e.g. "127.0.0.1:8787".
  addr: %q
`,
		cfg.Timer.TickInterval,
		cfg.Timer.ProgramFile,
		cfg.Timer.MaxEntrySteps,
		cfg.Paths.Log,
		cfg.Paths.Socket,
		cfg.Paths.PID,
		cfg.LogRotation.MaxSizeMB,
		cfg.LogRotation.MaxBackups,
		cfg.LogRotation.MaxAgeDays,
		cfg.LogRotation.Compress,
		cfg.Display.Bell,
		cfg.Display.ShowProgram,
		cfg.Display.CueCommand,
		cfg.Web.Addr,
	)
}

// samplePrograms are written to programs/ by a full init.
func samplePrograms() []*program.Program {
	return []*program.Program{
		program.Default(),
		program.MustNew(
			[]program.Phase{
				program.ReceiveInput(),
				program.TimeFor(20),
				program.TimeFor(10),
				program.Repeat(1, 0),
				program.TimeFor(60),
				program.Repeat(1, 1),
			},
			[]int{8, 2},
			program.WithName("tabata"),
			program.WithLabels([]string{"Ready", "Work", "Rest", "", "Set break", ""}),
		),
	}
}
