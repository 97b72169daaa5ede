// Package outcome describes the result of one step of the versioning
// pipeline. Steps never panic or return bare errors to the dispatcher;
// they return an Outcome that says whether they ran, were skipped, or failed.
package outcome

import "fmt"

// Status is the coarse result of a step.
type Status int

const (
	Succeeded Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of a single pipeline step.
type Outcome struct {
	// Step names the operation, e.g. "archive" or "changelog".
	Step string

	Status Status

	// Path is the file the step acted on, if any.
	Path string

	// Detail is a short human-readable explanation.
	Detail string

	// Err is set when Status is Failed.
	Err error
}

// Success returns a Succeeded outcome.
func Success(step, path, detail string) Outcome {
	return Outcome{Step: step, Status: Succeeded, Path: path, Detail: detail}
}

// Skip returns a Skipped outcome.
func Skip(step, path, detail string) Outcome {
	return Outcome{Step: step, Status: Skipped, Path: path, Detail: detail}
}

// Fail returns a Failed outcome wrapping err.
func Fail(step, path string, err error) Outcome {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return Outcome{Step: step, Status: Failed, Path: path, Detail: detail, Err: err}
}

func (o Outcome) OK() bool      { return o.Status == Succeeded }
func (o Outcome) Skipped() bool { return o.Status == Skipped }
func (o Outcome) Failed() bool  { return o.Status == Failed }

func (o Outcome) String() string {
	if o.Detail == "" {
		return fmt.Sprintf("%s: %s", o.Step, o.Status)
	}
	return fmt.Sprintf("%s: %s (%s)", o.Step, o.Status, o.Detail)
}
