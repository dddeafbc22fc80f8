package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Fetch Kind = "FETCH"
	Parse Kind = "PARSE"
	Store Kind = "STORE"
)

// Step names the stage of a category pass that failed.
type Step string

const (
	StepFetch   Step = "fetch"
	StepParse   Step = "parse"
	StepList    Step = "list"
	StepApply   Step = "apply"
	StepArchive Step = "archive"
)

// Kind maps a pass step to the error kind it raises.
func (s Step) Kind() Kind {
	switch s {
	case StepFetch:
		return Fetch
	case StepParse:
		return Parse
	default:
		return Store
	}
}

type Error struct {
	kind     Kind
	category string
	step     Step
	err      error
}

func New(kind Kind, category string, step Step, err error) *Error {
	return &Error{kind: kind, category: category, step: step, err: err}
}

// Wrap classifies err by the step it came from. An err that is already an
// *Error is returned unchanged.
func Wrap(category string, step Step, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return New(step.Kind(), category, step, err)
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.category, e.step, e.err)
}

func (e *Error) Unwrap() error    { return e.err }
func (e *Error) Kind() Kind       { return e.kind }
func (e *Error) Category() string { return e.category }
func (e *Error) Step() Step       { return e.step }

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind
	}
	return ""
}
