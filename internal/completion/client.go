// Package completion is the transport to the remote text-generation backend.
// A Client performs exactly one round trip per call and never retries; the
// caller decides how to treat a failure.
package completion

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyCompletion is returned when the backend answers 200 but carries no
// completion text.
var ErrEmptyCompletion = errors.New("completion: response has no completion text")

// Request is a single prompt sent to the backend.
type Request struct {
	// Prompt is the full user-role message content.
	Prompt string

	// Credential is the opaque access key sent in the credential header.
	Credential string

	// Target is the routing identifier of a domain responder. Empty means a
	// general-purpose completion not routed to any responder.
	Target string
}

// Scoped reports whether the request is routed to a specific responder.
func (r Request) Scoped() bool {
	return r.Target != ""
}

// Client is the interface for sending prompts to the completion backend.
type Client interface {
	// Complete sends one prompt and returns the completion text.
	Complete(ctx context.Context, req Request) (string, error)
}

// StatusError is returned when the backend answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("completion: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("completion: HTTP %d: %s", e.StatusCode, e.Body)
}
