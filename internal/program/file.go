package program

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileProgram struct {
	Name      string      `yaml:"name,omitempty"`
	Variables []int       `yaml:"variables,omitempty"`
	Phases    []filePhase `yaml:"phases"`
}

type filePhase struct {
	Kind     string `yaml:"kind"`
	Label    string `yaml:"label,omitempty"`
	Seconds  *int   `yaml:"seconds,omitempty"`
	Duration string `yaml:"duration,omitempty"`
	To       int    `yaml:"to,omitempty"`
	Var      int    `yaml:"var,omitempty"`
	Offset   int    `yaml:"offset,omitempty"`
}

// LoadFile reads and validates a YAML program file.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program file: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML program definition and validates it.
func Parse(data []byte) (*Program, error) {
	var fp fileProgram
	if err := yaml.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("parse program yaml: %w", err)
	}

	phases := make([]Phase, 0, len(fp.Phases))
	labels := make([]string, 0, len(fp.Phases))
	for i, raw := range fp.Phases {
		ph, err := raw.phase()
		if err != nil {
			return nil, fmt.Errorf("phase %d: %w", i, err)
		}
		phases = append(phases, ph)
		labels = append(labels, raw.Label)
	}

	return New(phases, fp.Variables, WithName(fp.Name), WithLabels(labels))
}

func (fp filePhase) phase() (Phase, error) {
	kind, err := ParseKind(fp.Kind)
	if err != nil {
		return Phase{}, err
	}

	switch kind {
	case KindTimeFor:
		seconds, err := fp.seconds()
		if err != nil {
			return Phase{}, err
		}
		return TimeFor(seconds), nil
	case KindReceiveInput:
		return ReceiveInput(), nil
	case KindRepeat:
		return Repeat(fp.To, fp.Var), nil
	case KindOffsetVariable:
		return OffsetVariable(fp.Var, fp.Offset), nil
	default:
		return Phase{}, fmt.Errorf("%s may not appear in a program file", kind)
	}
}

func (fp filePhase) seconds() (int, error) {
	switch {
	case fp.Seconds != nil && fp.Duration != "":
		return 0, errors.New("set either seconds or duration, not both")
	case fp.Seconds != nil:
		return *fp.Seconds, nil
	case fp.Duration != "":
		d, err := time.ParseDuration(fp.Duration)
		if err != nil {
			return 0, fmt.Errorf("parse duration: %w", err)
		}
		if d%time.Second != 0 {
			return 0, fmt.Errorf("duration %s is not a whole number of seconds", d)
		}
		return int(d / time.Second), nil
	default:
		return 0, errors.New("time_for needs seconds or duration")
	}
}

// Marshal encodes p, with its initial variable values, as YAML.
func Marshal(p *Program) ([]byte, error) {
	fp := fileProgram{
		Name:      p.name,
		Variables: p.Initial(),
		Phases:    make([]filePhase, 0, len(p.phases)),
	}
	for i, ph := range p.phases {
		raw := filePhase{Kind: ph.Kind.String(), Label: p.Label(i)}
		switch ph.Kind {
		case KindTimeFor:
			seconds := ph.Duration
			raw.Seconds = &seconds
		case KindRepeat:
			raw.To = ph.ToPhase
			raw.Var = ph.VarIndex
		case KindOffsetVariable:
			raw.Var = ph.VarIndex
			raw.Offset = ph.Offset
		}
		fp.Phases = append(fp.Phases, raw)
	}

	data, err := yaml.Marshal(fp)
	if err != nil {
		return nil, fmt.Errorf("marshal program yaml: %w", err)
	}
	return data, nil
}
