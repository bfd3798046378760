// Package program holds the phase sequence and variable bank of a timer
// program. It stores and validates; interpretation lives in package timer.
package program

import "fmt"

// Kind identifies the variant of a Phase.
type Kind int

// Phase kinds. BeginProgram and EndProgram are sentinels that are never
// stored in a program body.
const (
	KindBeginProgram Kind = iota
	KindTimeFor
	KindReceiveInput
	KindRepeat
	KindOffsetVariable
	KindEndProgram
)

var kindNames = map[Kind]string{
	KindBeginProgram:   "begin_program",
	KindTimeFor:        "time_for",
	KindReceiveInput:   "receive_input",
	KindRepeat:         "repeat",
	KindOffsetVariable: "offset_variable",
	KindEndProgram:     "end_program",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown phase kind %q", s)
}

// Phase is one step of a program. Only the fields relevant to Kind are set,
// which keeps Phase comparable with ==.
type Phase struct {
	Kind     Kind `json:"kind"`
	Duration int  `json:"duration,omitempty"`  // TimeFor: seconds
	ToPhase  int  `json:"to_phase,omitempty"`  // Repeat: jump target
	VarIndex int  `json:"var_index,omitempty"` // Repeat, OffsetVariable
	Offset   int  `json:"offset,omitempty"`    // OffsetVariable: signed delta
}

// BeginProgram is the "before phase 0" sentinel.
func BeginProgram() Phase { return Phase{Kind: KindBeginProgram} }

// EndProgram is the "after the last phase" sentinel.
func EndProgram() Phase { return Phase{Kind: KindEndProgram} }

// TimeFor counts down the given number of seconds.
func TimeFor(seconds int) Phase { return Phase{Kind: KindTimeFor, Duration: seconds} }

// ReceiveInput blocks until an external input arrives.
func ReceiveInput() Phase { return Phase{Kind: KindReceiveInput} }

// Repeat jumps back to toPhase while the variable at varIndex stays positive
// after being decremented.
func Repeat(toPhase, varIndex int) Phase {
	return Phase{Kind: KindRepeat, ToPhase: toPhase, VarIndex: varIndex}
}

// OffsetVariable adds offset to the variable at varIndex.
func OffsetVariable(varIndex, offset int) Phase {
	return Phase{Kind: KindOffsetVariable, VarIndex: varIndex, Offset: offset}
}

// Terminal reports whether the timer stops and reports on this phase.
// Repeat and OffsetVariable are resolved internally.
func (p Phase) Terminal() bool {
	switch p.Kind {
	case KindTimeFor, KindReceiveInput, KindEndProgram:
		return true
	default:
		return false
	}
}

// Sentinel reports whether p is BeginProgram or EndProgram.
func (p Phase) Sentinel() bool {
	return p.Kind == KindBeginProgram || p.Kind == KindEndProgram
}

// String renders the phase for logs, e.g. "time_for(30s)" or "repeat(to=0, var=1)".
func (p Phase) String() string {
	switch p.Kind {
	case KindTimeFor:
		return fmt.Sprintf("time_for(%ds)", p.Duration)
	case KindRepeat:
		return fmt.Sprintf("repeat(to=%d, var=%d)", p.ToPhase, p.VarIndex)
	case KindOffsetVariable:
		return fmt.Sprintf("offset_variable(var=%d, %+d)", p.VarIndex, p.Offset)
	default:
		return p.Kind.String()
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
