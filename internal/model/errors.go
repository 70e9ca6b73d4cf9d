package model

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to classify a failure.
var (
	ErrResource  = errors.New("resource error")
	ErrShape     = errors.New("shape error")
	ErrInference = errors.New("inference error")
	ErrState     = errors.New("state error")
)

// ErrReleased is the cause reported by an Engine used after Close.
var ErrReleased = errors.New("engine handle released")

type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func ResourceError(op string, err error) error {
	return &Error{Kind: ErrResource, Op: op, Err: err}
}

func ShapeError(op string, err error) error {
	return &Error{Kind: ErrShape, Op: op, Err: err}
}

func InferenceError(op string, err error) error {
	return &Error{Kind: ErrInference, Op: op, Err: err}
}

func StateError(op string, err error) error {
	return &Error{Kind: ErrState, Op: op, Err: err}
}
