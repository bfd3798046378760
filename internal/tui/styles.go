package tui

import "github.com/charmbracelet/lipgloss"

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header styles
	Program lipgloss.Style
	Clock   lipgloss.Style
	Label   lipgloss.Style
	Runs    lipgloss.Style

	// Outline styles
	Step        lipgloss.Style
	StepCurrent lipgloss.Style

	// Event styles
	Muted  lipgloss.Style
	Output lipgloss.Style
	Run    lipgloss.Style
	Error  lipgloss.Style

	// State colors
	StateIdle     lipgloss.Style
	StateCounting lipgloss.Style
	StateAwaiting lipgloss.Style
	StatePaused   lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Program: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Clock: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255")).
		Padding(0, 1),

	Label: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	Runs: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Step: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	StepCurrent: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")).
		Background(lipgloss.Color("22")),

	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Output: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	Run: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	StateIdle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	StateCounting: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	StateAwaiting: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("177")),

	StatePaused: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),
}
