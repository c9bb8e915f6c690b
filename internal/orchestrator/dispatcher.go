package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/dusk-indust/agentmux/internal/metrics"
	"github.com/dusk-indust/agentmux/internal/registry"
	"github.com/dusk-indust/agentmux/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dispatcher sends sub-questions to their responders concurrently and
// collects the answers in input order. A failing responder never affects the
// others: its failure is captured in the corresponding SubResult.
type Dispatcher struct {
	client   completion.Client
	registry *registry.Registry
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher. timeout bounds each responder call
// independently; zero means DefaultDispatchTimeout.
func NewDispatcher(client completion.Client, reg *registry.Registry, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		client:   client,
		registry: reg,
		timeout:  timeout,
		logger:   logger,
	}
}

// Dispatch answers every sub-question. len(result) == len(subs) and
// result[i] corresponds to subs[i]. Unregistered responders produce a
// not-found answer without a completion call. onProgress may be nil.
func (d *Dispatcher) Dispatch(ctx context.Context, credential string, subs []SubQuestion, onProgress func(ProgressEvent)) []SubResult {
	emit := func(ev ProgressEvent) {
		if onProgress != nil {
			onProgress(ev)
		}
	}

	results := make([]SubResult, len(subs))

	// Goroutines always return nil so one failure never cancels the rest.
	var g errgroup.Group
	for i, sq := range subs {
		emit(ProgressEvent{State: StateDispatching, Index: i, Responder: sq.ResponderID, Status: ProgressPending})

		g.Go(func() error {
			answer := d.answer(ctx, credential, i, sq, emit)
			results[i] = SubResult{
				SubQuestion: sq.Text,
				ResponderID: sq.ResponderID,
				Answer:      answer,
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// answer resolves and calls one responder. Panics in the client are
// converted to failed answers.
func (d *Dispatcher) answer(ctx context.Context, credential string, idx int, sq SubQuestion, emit func(ProgressEvent)) (ans Answer) {
	resp, ok := d.registry.Lookup(sq.ResponderID)
	if !ok {
		metrics.DispatchResults.WithLabelValues(sq.ResponderID, metrics.OutcomeNotFound).Inc()
		d.logger.Warn("sub-question routed to unregistered responder",
			zap.Int("index", idx),
			zap.String("responder", sq.ResponderID))
		emit(ProgressEvent{
			State: StateDispatching, Index: idx, Responder: sq.ResponderID,
			Status: ProgressFailed, Message: "not found",
		})
		return Failed(&NotFoundError{ResponderID: sq.ResponderID})
	}

	defer func() {
		if r := recover(); r != nil {
			ans = Failed(fmt.Errorf("panic: %v", r))
			metrics.DispatchResults.WithLabelValues(resp.ID, metrics.OutcomeFailed).Inc()
			d.logger.Error("responder call panicked", zap.String("responder", resp.ID), zap.Any("panic", r))
			emit(ProgressEvent{
				State: StateDispatching, Index: idx, Responder: resp.ID,
				Status: ProgressFailed, Message: ans.Err.Error(),
			})
		}
	}()

	emit(ProgressEvent{State: StateDispatching, Index: idx, Responder: resp.ID, Status: ProgressWorking})

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	callCtx, span := tracing.StartSpan(callCtx, "orchestrator.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("dispatch.index", idx),
		attribute.String("dispatch.responder", resp.ID),
	)

	start := time.Now()
	text, err := d.client.Complete(callCtx, completion.Request{
		Prompt:     sq.Text,
		Credential: credential,
		Target:     resp.Target,
	})
	if err != nil {
		span.RecordError(err)
		metrics.DispatchResults.WithLabelValues(resp.ID, metrics.OutcomeFailed).Inc()
		d.logger.Warn("responder call failed",
			zap.Int("index", idx),
			zap.String("responder", resp.ID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		emit(ProgressEvent{
			State: StateDispatching, Index: idx, Responder: resp.ID,
			Status: ProgressFailed, Message: err.Error(),
		})
		return Failed(err)
	}

	metrics.DispatchResults.WithLabelValues(resp.ID, metrics.OutcomeSuccess).Inc()
	d.logger.Debug("responder answered",
		zap.Int("index", idx),
		zap.String("responder", resp.ID),
		zap.Duration("duration", time.Since(start)))
	emit(ProgressEvent{State: StateDispatching, Index: idx, Responder: resp.ID, Status: ProgressComplete})
	return Succeeded(text)
}
