package export

import (
	"errors"
	"time"

	"github.com/dusk-indust/agentmux/internal/orchestrator"
	"github.com/dusk-indust/agentmux/internal/registry"
)

// Report is the top-level JSON export of one invocation.
type Report struct {
	ID           string              `json:"id"`
	Question     string              `json:"question"`
	ExportedAt   string              `json:"exportedAt"`
	Fallback     bool                `json:"fallback"`
	SubQuestions []SubQuestionReport `json:"subQuestions"`
	Synthesis    string              `json:"synthesis"`
	FinalAnswer  string              `json:"finalAnswer"`
}

// SubQuestionReport describes one dispatched sub-question.
type SubQuestionReport struct {
	Index       int    `json:"index"`
	SubQuestion string `json:"subQuestion"`
	ResponderID string `json:"responderId"`
	Responder   string `json:"responder"`
	Priority    int    `json:"priority"`
	Status      string `json:"status"` // "answered", "failed" or "not_found"
	Answer      string `json:"answer,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewReport builds a Report from a finished invocation.
func NewReport(res *orchestrator.Result, reg *registry.Registry) *Report {
	r := &Report{
		ID:          res.ID,
		Question:    res.Question,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Fallback:    res.Fallback,
		Synthesis:   res.Synthesis,
		FinalAnswer: res.FinalAnswer,
	}

	for i, sr := range res.SubResults {
		sq := SubQuestionReport{
			Index:       i + 1,
			SubQuestion: sr.SubQuestion,
			ResponderID: sr.ResponderID,
			Responder:   reg.DisplayName(sr.ResponderID),
		}
		if i < len(res.SubQuestions) {
			sq.Priority = res.SubQuestions[i].Priority
		}
		switch {
		case sr.Answer.OK():
			sq.Status = "answered"
			sq.Answer = sr.Answer.Text
		case errors.Is(sr.Answer.Err, orchestrator.ErrResponderNotFound):
			sq.Status = "not_found"
			sq.Error = sr.Answer.String()
		default:
			sq.Status = "failed"
			sq.Error = sr.Answer.String()
		}
		r.SubQuestions = append(r.SubQuestions, sq)
	}

	return r
}
