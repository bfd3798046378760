package program

import "slices"

// Program is an ordered phase sequence plus a mutable variable bank.
// Phase indices are stable: Repeat targets refer to them directly.
//
// A Program is not safe for concurrent use; it is owned by one timer.
type Program struct {
	name    string
	phases  []Phase
	labels  []string
	initial []int
	vars    []int
}

// Option configures a Program at construction.
type Option func(*Program)

// WithName sets the display name of the program.
func WithName(name string) Option {
	return func(p *Program) {
		p.name = name
	}
}

// WithLabels attaches a display label to each phase by index.
// Missing or extra labels are ignored.
func WithLabels(labels []string) Option {
	return func(p *Program) {
		p.labels = slices.Clone(labels)
	}
}

// New validates phases and variables and builds a Program.
// Invalid jump targets and variable indices are rejected here so that the
// timer never meets them at transition time.
func New(phases []Phase, variables []int, opts ...Option) (*Program, error) {
	if err := Validate(phases, len(variables)); err != nil {
		return nil, err
	}

	p := &Program{
		phases:  slices.Clone(phases),
		initial: slices.Clone(variables),
		vars:    slices.Clone(variables),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// MustNew is New for static programs; it panics on a validation error.
func MustNew(phases []Phase, variables []int, opts ...Option) *Program {
	p, err := New(phases, variables, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the program name, which may be empty.
func (p *Program) Name() string { return p.name }

// Len returns the number of phases.
func (p *Program) Len() int { return len(p.phases) }

// Phase returns the phase at index i, or EndProgram and false when i is out
// of range.
func (p *Program) Phase(i int) (Phase, bool) {
	if i < 0 || i >= len(p.phases) {
		return EndProgram(), false
	}
	return p.phases[i], true
}

// Phases returns a copy of the phase sequence.
func (p *Program) Phases() []Phase { return slices.Clone(p.phases) }

// Label returns the label of phase i, or "" when none was configured.
func (p *Program) Label(i int) string {
	if i < 0 || i >= len(p.labels) {
		return ""
	}
	return p.labels[i]
}

// Var returns the current value of variable i.
func (p *Program) Var(i int) int { return p.vars[i] }

// AddVar adds delta to variable i and returns the new value.
func (p *Program) AddVar(i, delta int) int {
	p.vars[i] += delta
	return p.vars[i]
}

// ResetVar restores variable i to its configured initial value.
func (p *Program) ResetVar(i int) { p.vars[i] = p.initial[i] }

// ResetVars restores every variable to its initial value.
func (p *Program) ResetVars() { copy(p.vars, p.initial) }

// Variables returns a copy of the live variable bank.
func (p *Program) Variables() []int { return slices.Clone(p.vars) }

// Initial returns a copy of the configured initial values.
func (p *Program) Initial() []int { return slices.Clone(p.initial) }
