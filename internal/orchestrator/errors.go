package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingQuestion is returned when the invocation has no question text.
	ErrMissingQuestion = errors.New("missing required parameter: question")

	// ErrMissingCredential is returned when the invocation has no credential.
	ErrMissingCredential = errors.New("missing required parameter: app_key")

	// ErrResponderNotFound matches every *NotFoundError.
	ErrResponderNotFound = errors.New("responder not found")
)

// InputError reports invalid invocation input. No completion calls are made
// when it is returned.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("orchestrator: invalid input: %v", e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// StageError reports a fatal failure in the decomposition or synthesis call.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("orchestrator: %s failed: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a sub-question routed to an unregistered responder.
type NotFoundError struct {
	ResponderID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("responder %q not found", e.ResponderID)
}

// Is makes errors.Is(err, ErrResponderNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrResponderNotFound
}
