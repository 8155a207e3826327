package mdparser

import (
	"fmt"
	"strings"
)

// Error is implemented by all parser errors. SourceLine returns the 1-based
// line number the error refers to.
type Error interface {
	error
	SourceLine() int
}

// ParseError is the base error type for all mdparser errors.
type ParseError struct {
	Message string
	Line    int // 1-based source line, 0 if not applicable
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Cause }

// SourceLine returns the 1-based line number carried by the error.
func (e *ParseError) SourceLine() int { return e.Line }

// StructuralError reports a line for which no transition applies in the
// current parser state. It names the offending kind and the kinds that
// would have been accepted.
type StructuralError struct {
	ParseError
	State    State
	Got      LineKind
	Expected []LineKind
}

func (e *StructuralError) Error() string {
	names := make([]string, len(e.Expected))
	for i, k := range e.Expected {
		names[i] = k.String()
	}
	return fmt.Sprintf("line %d: unexpected %s while %s (expected %s)",
		e.Line, e.Got, e.State, strings.Join(names, " or "))
}

// UnterminatedFenceError reports end-of-input inside a code fence.
// Line is the line the fence was opened on.
type UnterminatedFenceError struct {
	ParseError
}

// EmptyAnswerSetError reports a question finalized with fewer than two
// answers.
type EmptyAnswerSetError struct {
	ParseError
	Question string // body excerpt
}

// NoCorrectAnswerError reports a question finalized with no answer marked
// correct.
type NoCorrectAnswerError struct {
	ParseError
	Question string // body excerpt
}
