package program

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProgram is matched by every *ValidationError via errors.Is.
var ErrInvalidProgram = errors.New("invalid program")

// Validation issue codes.
const (
	CodeEmpty          = "EMPTY_PROGRAM"
	CodeSentinelInBody = "SENTINEL_IN_BODY"
	CodeNegativeTime   = "NEGATIVE_DURATION"
	CodeJumpOutOfRange = "JUMP_OUT_OF_RANGE"
	CodeForwardJump    = "FORWARD_JUMP"
	CodeBadVariable    = "VARIABLE_OUT_OF_RANGE"
	CodeUnknownKind    = "UNKNOWN_KIND"
)

// programLevelPhaseID marks issues that do not belong to a single phase.
const programLevelPhaseID = -1

// Issue is a single configuration problem. Phase is -1 for program-level
// issues.
type Issue struct {
	Code    string
	Phase   int
	Message string
}

func (i Issue) String() string {
	if i.Phase == programLevelPhaseID {
		return fmt.Sprintf("[%s] %s", i.Code, i.Message)
	}
	return fmt.Sprintf("[%s] phase %d: %s", i.Code, i.Phase, i.Message)
}

// ValidationError collects every issue found in a program.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid program: " + e.Issues[0].String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "invalid program: %d issues:", len(e.Issues))
	for n, issue := range e.Issues {
		fmt.Fprintf(&b, "\n  %d. %s", n+1, issue.String())
	}
	return b.String()
}

// Is lets errors.Is(err, ErrInvalidProgram) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidProgram
}

func (e *ValidationError) add(code string, phase int, format string, args ...any) {
	e.Issues = append(e.Issues, Issue{Code: code, Phase: phase, Message: fmt.Sprintf(format, args...)})
}

// Validate checks a phase sequence against a variable bank of numVars
// entries. It returns nil or a *ValidationError.
func Validate(phases []Phase, numVars int) error {
	verr := &ValidationError{}

	if len(phases) == 0 {
		verr.add(CodeEmpty, programLevelPhaseID, "program has no phases")
	}

	for i, ph := range phases {
		switch ph.Kind {
		case KindBeginProgram, KindEndProgram:
			verr.add(CodeSentinelInBody, i, "%s may not appear in a program body", ph.Kind)
		case KindTimeFor:
			if ph.Duration < 0 {
				verr.add(CodeNegativeTime, i, "duration %d is negative", ph.Duration)
			}
		case KindReceiveInput:
		case KindRepeat:
			switch {
			case ph.ToPhase < 0 || ph.ToPhase >= len(phases):
				verr.add(CodeJumpOutOfRange, i, "jump target %d outside [0, %d)", ph.ToPhase, len(phases))
			case ph.ToPhase > i:
				verr.add(CodeForwardJump, i, "jump target %d is after the repeat itself", ph.ToPhase)
			}
			checkVar(verr, i, ph.VarIndex, numVars)
		case KindOffsetVariable:
			checkVar(verr, i, ph.VarIndex, numVars)
		default:
			verr.add(CodeUnknownKind, i, "unknown phase kind %d", int(ph.Kind))
		}
	}

	if len(verr.Issues) > 0 {
		return verr
	}
	return nil
}

func checkVar(verr *ValidationError, phase, index, numVars int) {
	if index < 0 || index >= numVars {
		verr.add(CodeBadVariable, phase, "variable index %d outside bank of %d", index, numVars)
	}
}
