// Package errs classifies the fatal errors a grokline run can stop on.
// Lines that fail to match are not errors and never reach this package.
package errs

import (
	"errors"
	"fmt"
)

// Kind says which stage of the run failed.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors not created here.
	KindUnknown Kind = iota
	// KindConfig is an invalid flag, environment or config file value.
	KindConfig
	// KindCompile is a pattern that cannot be compiled, or unreadable pattern definitions.
	KindCompile
	// KindInput is an input path that cannot be expanded, opened or read.
	KindInput
	// KindSink is an output destination that cannot be opened or written.
	KindSink
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindCompile:
		return "compile"
	case KindInput:
		return "input"
	case KindSink:
		return "sink"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with its kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Config classifies err as a configuration error.
func Config(op string, err error) error { return newError(KindConfig, op, err) }

// Compile classifies err as a pattern compilation error.
func Compile(op string, err error) error { return newError(KindCompile, op, err) }

// Input classifies err as an input error.
func Input(op string, err error) error { return newError(KindInput, op, err) }

// Sink classifies err as an output sink error.
func Sink(op string, err error) error { return newError(KindSink, op, err) }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
