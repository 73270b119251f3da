package tgen

import (
	"errors"
	"fmt"
)

// Parse failures. A *ParseError wraps exactly one of these.
var (
	ErrUnrecognized  = errors.New("unrecognized input line")
	ErrMalformed     = errors.New("malformed operands")
	ErrTrailingInput = errors.New("unexpected trailing input")

	// Configuration errors: the line has the right shape but names an
	// unknown unit, an invalid identifier, or a number out of range.
	ErrInvalidUnit       = errors.New("invalid unit")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrOutOfRange        = errors.New("number out of range")
	ErrLabelRedefined    = errors.New("label already defined")
)

// Generator state errors.
var (
	ErrRunning = errors.New("generator is running")
	ErrClosed  = errors.New("generator is closed")
)

// ParseError reports a script line that could not be compiled.
type ParseError struct {
	Input  string // the offending line
	Err    error  // one of the parse sentinels
	Detail string // optional context, e.g. the bad unit
}

func (e *ParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("parse %q: %v: %s", e.Input, e.Err, e.Detail)
	}
	return fmt.Sprintf("parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnknownLabelError is returned by Run when a loop step references a label
// that was never declared.
type UnknownLabelError struct {
	Label byte // label letter
	PC    int  // index of the loop step
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown label '%c' in loop at step %d", e.Label, e.PC)
}

// IsConfigurationError reports whether err stems from an invalid unit,
// identifier, numeric range or duplicate label rather than bad syntax.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidUnit) ||
		errors.Is(err, ErrInvalidIdentifier) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrLabelRedefined)
}
