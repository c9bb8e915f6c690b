package orchestrator

import (
	"context"
	"errors"
	"fmt"
)

// State is a step of the orchestration state machine.
type State int

const (
	StateIdle State = iota
	StateDecomposing
	StateDispatching
	StateSynthesizing
	StateDone
	StateFailed
)

func (s State) String() string {
	names := [...]string{
		"idle",
		"decomposing",
		"dispatching",
		"synthesizing",
		"done",
		"failed",
	}
	if int(s) >= 0 && int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// SubQuestion is one decomposed unit of the original question, assigned to
// exactly one responder.
type SubQuestion struct {
	Text        string `json:"sub_question"`
	ResponderID string `json:"agent_id"`

	// Priority is advisory; lower numbers mean higher priority. Dispatch
	// order never depends on it.
	Priority int `json:"priority"`
}

// Answer is the outcome of one dispatch: either the responder's completion
// text or the reason it could not be produced.
type Answer struct {
	Text string
	Err  error
}

// Succeeded wraps a responder's completion text.
func Succeeded(text string) Answer {
	return Answer{Text: text}
}

// Failed wraps a dispatch failure.
func Failed(err error) Answer {
	return Answer{Err: err}
}

// OK reports whether the responder produced an answer.
func (a Answer) OK() bool {
	return a.Err == nil
}

// String renders the answer as it is fed to synthesis: the completion text,
// or a bracketed error marker for failures.
func (a Answer) String() string {
	if a.Err == nil {
		return a.Text
	}
	var nf *NotFoundError
	if errors.As(a.Err, &nf) {
		return fmt.Sprintf("[Agent %s not found]", nf.ResponderID)
	}
	return fmt.Sprintf("[Agent call failed: %v]", a.Err)
}

// SubResult pairs a sub-question with its responder's answer.
type SubResult struct {
	SubQuestion string `json:"sub_question"`
	ResponderID string `json:"agent_id"`
	Answer      Answer `json:"-"`
}

// Invocation is one orchestration request.
type Invocation struct {
	// Question is the user's question text.
	Question string

	// Credential is the opaque access key forwarded to the completion backend.
	Credential string

	// OnProgress, if set, receives progress events synchronously. It may be
	// called from several goroutines at once during dispatch.
	OnProgress func(ProgressEvent)
}

// Result holds everything produced by a successful invocation.
type Result struct {
	// ID identifies the invocation in logs.
	ID string

	Question     string
	SubQuestions []SubQuestion
	SubResults   []SubResult

	// Synthesis is the merged answer returned by the synthesis call.
	Synthesis string

	// Trace is the deterministic processing-details block.
	Trace string

	// FinalAnswer is Synthesis followed by Trace.
	FinalAnswer string

	// Fallback is true when the decomposition could not be parsed and the
	// whole question was routed to the fallback responder.
	Fallback bool
}

// ProgressEvent is emitted during an invocation.
type ProgressEvent struct {
	State State

	// Index is the sub-question position during dispatch, -1 otherwise.
	Index int

	// Responder is the responder ID during dispatch.
	Responder string

	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of a stage or sub-question.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// Orchestrator answers a question by decomposing, dispatching and
// synthesizing.
type Orchestrator interface {
	// Run executes the full pipeline and returns the structured result.
	Run(ctx context.Context, inv Invocation) (*Result, error)

	// Answer runs the pipeline and always returns user-facing text: the final
	// answer on success, a plain failure message otherwise.
	Answer(ctx context.Context, inv Invocation) string
}
