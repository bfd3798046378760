package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/npratt/intervals/internal/timer"
)

// keyMap binds keys to timer inputs and view toggles.
type keyMap struct {
	Start   key.Binding
	Pause   key.Binding
	Skip    key.Binding
	Reset   key.Binding
	Input   key.Binding
	Stop    key.Binding
	Program key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start"),
		),
		Pause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause/resume"),
		),
		Skip: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "skip"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Input: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop"),
		),
		Program: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "program"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Skip, k.Input, k.Stop, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Input},
		{k.Pause, k.Reset, k.Skip},
		{k.Program, k.Help, k.Quit},
	}
}

// enableFor turns on only the bindings that can change state st.
func (k *keyMap) enableFor(st timer.State) {
	counting := st.Kind == timer.Counting
	k.Start.SetEnabled(st.Kind == timer.Idle)
	k.Stop.SetEnabled(st.Kind != timer.Idle)
	k.Pause.SetEnabled(counting)
	k.Reset.SetEnabled(counting)
	k.Skip.SetEnabled(st.Kind != timer.Idle)
	k.Input.SetEnabled(st.Kind == timer.Awaiting)
}
