package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/dusk-indust/agentmux/internal/metrics"
	"github.com/dusk-indust/agentmux/internal/registry"
	"github.com/dusk-indust/agentmux/internal/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

// MissingInputMessage is the user-facing text for an invocation without a
// question or credential.
const MissingInputMessage = "Error: missing required parameter question or app_key"

// Pipeline implements Orchestrator. It runs decomposition, dispatch and
// synthesis in order for each invocation. A Pipeline holds no per-invocation
// state and is safe for concurrent use.
type Pipeline struct {
	cfg         Config
	registry    *registry.Registry
	decomposer  *Decomposer
	dispatcher  *Dispatcher
	synthesizer *Synthesizer
	logger      *zap.Logger
}

// New creates a Pipeline. It fails if cfg does not validate against reg.
func New(cfg Config, reg *registry.Registry, client completion.Client, logger *zap.Logger) (*Pipeline, error) {
	if reg == nil {
		return nil, fmt.Errorf("orchestrator: %w", registry.ErrEmpty)
	}
	if client == nil {
		return nil, errors.New("orchestrator: completion client is required")
	}
	if err := cfg.Validate(reg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		cfg:         cfg,
		registry:    reg,
		decomposer:  NewDecomposer(client, reg, cfg.FallbackResponder, logger),
		dispatcher:  NewDispatcher(client, reg, cfg.DispatchTimeout, logger),
		synthesizer: NewSynthesizer(client, reg),
		logger:      logger,
	}, nil
}

// Registry returns the responder registry the pipeline routes to.
func (p *Pipeline) Registry() *registry.Registry {
	return p.registry
}

// Run validates the invocation and executes the three stages. It returns an
// *InputError for missing input and a *StageError when the decomposition or
// synthesis call fails. Responder failures are never fatal.
func (p *Pipeline) Run(ctx context.Context, inv Invocation) (res *Result, err error) {
	start := time.Now()
	id := uuid.NewString()
	logger := p.logger.With(zap.String("invocation_id", id))

	ctx, span := tracing.StartSpan(ctx, "orchestrator.Run")
	defer span.End()
	span.SetAttributes(attribute.String("invocation.id", id))

	m := newMachine(inv.OnProgress)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panicked", zap.Stringer("state", m.state), zap.Any("panic", r))
			err = &StageError{State: m.state, Err: fmt.Errorf("panic: %v", r)}
			res = nil
		}

		outcome := metrics.OutcomeSuccess
		var inErr *InputError
		switch {
		case errors.As(err, &inErr):
			outcome = metrics.OutcomeInputError
			m.fail(err)
		case err != nil:
			outcome = metrics.OutcomeFailed
			failed := m.state
			var stErr *StageError
			if errors.As(err, &stErr) {
				failed = stErr.State
			}
			m.fail(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("invocation failed",
				zap.Stringer("stage", failed),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
		}
		metrics.InvocationsTotal.WithLabelValues(outcome).Inc()
		metrics.InvocationDuration.Observe(time.Since(start).Seconds())
		if outcome != metrics.OutcomeFailed {
			logger.Info("invocation finished",
				zap.String("outcome", outcome),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
		}
	}()

	if strings.TrimSpace(inv.Question) == "" {
		return nil, &InputError{Err: ErrMissingQuestion}
	}
	if strings.TrimSpace(inv.Credential) == "" {
		return nil, &InputError{Err: ErrMissingCredential}
	}

	logger.Info("invocation started", zap.Int("question_len", len(inv.Question)))

	// Decompose.
	if err := m.advance(StateDecomposing); err != nil {
		return nil, err
	}
	stageStart := time.Now()
	subs, usedFallback, err := p.decomposer.Decompose(ctx, inv.Question, inv.Credential)
	observeStage(StateDecomposing, stageStart)
	if err != nil {
		return nil, &StageError{State: StateDecomposing, Err: err}
	}
	metrics.SubQuestionsPerInvocation.Observe(float64(len(subs)))
	logger.Info("question decomposed",
		zap.Int("sub_questions", len(subs)),
		zap.Bool("fallback", usedFallback))

	for _, issue := range CheckCoherence(subs, p.registry) {
		logger.Warn("decomposition issue", zap.String("issue", issue.Description))
	}

	// Dispatch.
	if err := m.advance(StateDispatching); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	results := p.dispatcher.Dispatch(ctx, inv.Credential, subs, inv.OnProgress)
	observeStage(StateDispatching, stageStart)

	// Synthesize.
	if err := m.advance(StateSynthesizing); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	synthesis, err := p.synthesizer.Synthesize(ctx, inv.Question, inv.Credential, results)
	observeStage(StateSynthesizing, stageStart)
	if err != nil {
		return nil, &StageError{State: StateSynthesizing, Err: err}
	}

	trace := BuildTrace(p.registry, results)
	if err := m.advance(StateDone); err != nil {
		return nil, err
	}

	return &Result{
		ID:           id,
		Question:     inv.Question,
		SubQuestions: subs,
		SubResults:   results,
		Synthesis:    synthesis,
		Trace:        trace,
		FinalAnswer:  FinalAnswer(synthesis, trace),
		Fallback:     usedFallback,
	}, nil
}

// Answer runs the pipeline and converts any error into user-facing text. It
// never panics and never returns an empty string for a failed invocation.
func (p *Pipeline) Answer(ctx context.Context, inv Invocation) string {
	res, err := p.Run(ctx, inv)
	if err != nil {
		return FailureMessage(err)
	}
	return res.FinalAnswer
}

// FailureMessage renders err as the text returned to the user.
func FailureMessage(err error) string {
	var inErr *InputError
	if errors.As(err, &inErr) {
		return MissingInputMessage
	}
	var stErr *StageError
	if errors.As(err, &stErr) {
		return "Processing failed: " + stErr.Err.Error()
	}
	return "Processing failed: " + err.Error()
}

func observeStage(s State, start time.Time) {
	metrics.StageDuration.WithLabelValues(s.String()).Observe(time.Since(start).Seconds())
}
