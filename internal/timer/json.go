package timer

import (
	"encoding/json"

	"github.com/npratt/intervals/internal/program"
)

// wireOutput is the JSON shape of an Output: fields that do not apply to the
// kind are left out instead of showing zero phases.
type wireOutput struct {
	Kind      OutputKind     `json:"kind"`
	Phase     *program.Phase `json:"phase,omitempty"`
	Prev      *program.Phase `json:"prev,omitempty"`
	Next      *program.Phase `json:"next,omitempty"`
	Completed *bool          `json:"completed,omitempty"`
	Seconds   *int           `json:"seconds,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (o Output) MarshalJSON() ([]byte, error) {
	w := wireOutput{Kind: o.Kind}
	switch o.Kind {
	case ProgramStopped:
		w.Phase = &o.Phase
	case PhaseChange:
		w.Prev = &o.Prev
		w.Next = &o.Next
		w.Completed = &o.Completed
	case TimerProgress, TimerResumed, TimerReset:
		w.Seconds = &o.Seconds
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Output) UnmarshalJSON(data []byte) error {
	var w wireOutput
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*o = Output{Kind: w.Kind}
	if w.Phase != nil {
		o.Phase = *w.Phase
	}
	if w.Prev != nil {
		o.Prev = *w.Prev
	}
	if w.Next != nil {
		o.Next = *w.Next
	}
	if w.Completed != nil {
		o.Completed = *w.Completed
	}
	if w.Seconds != nil {
		o.Seconds = *w.Seconds
	}
	return nil
}
