package engine

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/neural"
)

// Kind classifies a boundary failure.
type Kind int

const (
	KindMalformedGenome  Kind = iota + 1 // exchange text that does not decode to a valid flower
	KindInvalidParameter                 // phenotype parameters, rates or environment out of range
	KindInvalidRequest                   // an operation the inputs cannot support, e.g. mismatched DNA
	KindEvaluation                       // a cycle or unknown activation met while evaluating
)

func (k Kind) String() string {
	switch k {
	case KindMalformedGenome:
		return "malformed genome"
	case KindInvalidParameter:
		return "invalid parameter"
	case KindInvalidRequest:
		return "invalid request"
	case KindEvaluation:
		return "evaluation failure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single failure value every entry point returns.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of an engine error, or 0 when err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// classify maps package sentinels onto boundary kinds. Decoding wraps
// everything in ErrMalformed, so it is checked first.
func classify(err error) Kind {
	switch {
	case errors.Is(err, neural.ErrMalformed):
		return KindMalformedGenome
	case errors.Is(err, flower.ErrInvalidParams), errors.Is(err, neural.ErrInvalidParameter):
		return KindInvalidParameter
	case errors.Is(err, neural.ErrIncompatible):
		return KindInvalidRequest
	case errors.Is(err, neural.ErrCycle), errors.Is(err, neural.ErrUnknownActivation):
		return KindEvaluation
	}
	return KindEvaluation
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Op: op, Kind: classify(err), Err: err}
}
