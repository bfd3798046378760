// Package config provides configuration types and defaults for intervals.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/npratt/intervals/internal/timer"
)

// Config holds all configuration for intervals.
type Config struct {
	Timer       TimerConfig       `yaml:"timer" mapstructure:"timer"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
	Display     DisplayConfig     `yaml:"display" mapstructure:"display"`
	Web         WebConfig         `yaml:"web" mapstructure:"web"`
}

// TimerConfig holds settings for the controller and the program it runs.
type TimerConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`     // Wall time per Step (default: 1s)
	ProgramFile   string        `yaml:"program_file" mapstructure:"program_file"`       // YAML program; empty runs the built-in program
	MaxEntrySteps int           `yaml:"max_entry_steps" mapstructure:"max_entry_steps"` // Repeat/offset phases resolved per input before the run is ended
}

// PathsConfig holds file paths for the event log, socket, and pid file.
type PathsConfig struct {
	Log    string `yaml:"log" mapstructure:"log"`
	Socket string `yaml:"socket" mapstructure:"socket"`
	PID    string `yaml:"pid" mapstructure:"pid"`
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// DisplayConfig holds presentation settings for the TUI and headless output.
type DisplayConfig struct {
	Bell        bool   `yaml:"bell" mapstructure:"bell"`                 // Ring the terminal bell on cues
	ShowProgram bool   `yaml:"show_program" mapstructure:"show_program"` // Show the phase list in the TUI
	CueCommand  string `yaml:"cue_command" mapstructure:"cue_command"`   // Run per cue; {cue} and {asset} are expanded
}

// WebConfig holds settings for the websocket hub.
type WebConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // Listen address, e.g. "127.0.0.1:8787"; empty disables the hub
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Timer: TimerConfig{
			TickInterval:  time.Second,
			MaxEntrySteps: timer.DefaultMaxEntrySteps,
		},
		Paths: PathsConfig{
			Log:    ".intervals/events.log",
			Socket: ".intervals/intervals.sock",
			PID:    ".intervals/intervals.pid",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
		Display: DisplayConfig{
			Bell:        true,
			ShowProgram: true,
		},
	}
}

// Validate reports settings that would make the controller misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Timer.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("timer.tick_interval must be positive, got %s", c.Timer.TickInterval))
	}
	if c.Timer.MaxEntrySteps <= 0 {
		errs = append(errs, fmt.Errorf("timer.max_entry_steps must be positive, got %d", c.Timer.MaxEntrySteps))
	}
	if c.Paths.Socket == "" {
		errs = append(errs, errors.New("paths.socket must be set"))
	}
	return errors.Join(errs...)
}
