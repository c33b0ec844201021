package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConnectionString is a configuration error raised before any I/O
	ErrMissingConnectionString = errors.New("no document store connection string configured")

	// ErrEmptyDate is returned when a date column is present but blank
	ErrEmptyDate = errors.New("empty date value")

	errSourceRequired = errors.New("object storage source is required")
	errDialerRequired = errors.New("document store dialer is required")
)

// Stage identifies the part of the pipeline an error came from
type Stage string

const (
	StageConnect    Stage = "connect"
	StageCollection Stage = "collection"
	StageOpen       Stage = "open"
	StageParse      Stage = "parse"
	StageTransform  Stage = "transform"
	StagePersist    Stage = "persist"
)

// StageError is the terminal error of a failed run
type StageError struct {
	Stage Stage
	Line  int // Source line, 0 when not tied to a row
	Err   error
}

func (e *StageError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("billing %s failed at line %d: %v", e.Stage, e.Line, e.Err)
	}
	return fmt.Sprintf("billing %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// TransformError is returned when a matching row cannot be coerced
type TransformError struct {
	Field string
	Value string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("cannot parse %s value %q: %v", e.Field, e.Value, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage a pipeline error came from, or "" when err is not a StageError
func StageOf(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
