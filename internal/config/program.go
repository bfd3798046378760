package config

import (
	"fmt"

	"github.com/npratt/intervals/internal/program"
)

// LoadProgram returns the program to run: Timer.ProgramFile when set,
// otherwise the built-in program.
func (c *Config) LoadProgram() (*program.Program, error) {
	if c.Timer.ProgramFile == "" {
		return program.Default(), nil
	}

	p, err := program.LoadFile(c.Timer.ProgramFile)
	if err != nil {
		return nil, fmt.Errorf("load program %q: %w", c.Timer.ProgramFile, err)
	}
	return p, nil
}
