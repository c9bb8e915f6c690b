package orchestrator

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/dusk-indust/agentmux/internal/registry"
	"github.com/stretchr/testify/require"
)

// fakeClient implements completion.Client. Requests are routed to one of
// three handlers depending on whether they are a decomposition, a synthesis
// or a scoped responder call. Nil handlers return an empty answer.
type fakeClient struct {
	decompose  func(ctx context.Context, req completion.Request) (string, error)
	synthesize func(ctx context.Context, req completion.Request) (string, error)
	responder  func(ctx context.Context, req completion.Request) (string, error)

	calls atomic.Int32

	mu       sync.Mutex
	requests []completion.Request
}

func (f *fakeClient) Complete(ctx context.Context, req completion.Request) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	var fn func(context.Context, completion.Request) (string, error)
	switch {
	case req.Scoped():
		fn = f.responder
	case strings.HasPrefix(req.Prompt, "You are a task decomposition expert"):
		fn = f.decompose
	default:
		fn = f.synthesize
	}
	if fn == nil {
		return "", nil
	}
	return fn(ctx, req)
}

// scoped returns the responder requests received so far.
func (f *fakeClient) scoped() []completion.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []completion.Request
	for _, r := range f.requests {
		if r.Scoped() {
			out = append(out, r)
		}
	}
	return out
}

// lastGeneral returns the most recent unscoped request.
func (f *fakeClient) lastGeneral(t *testing.T) completion.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if !f.requests[i].Scoped() {
			return f.requests[i]
		}
	}
	t.Fatal("no general request recorded")
	return completion.Request{}
}

func fixed(text string) func(context.Context, completion.Request) (string, error) {
	return func(context.Context, completion.Request) (string, error) { return text, nil }
}

// testRegistry has finance, hr and dev with distinct targets.
func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(
		registry.Responder{ID: "finance", Name: "Finance Agent", Description: "budgets and costs", Target: "app-finance"},
		registry.Responder{ID: "hr", Name: "HR Agent", Description: "hiring and staffing", Target: "app-hr"},
		registry.Responder{ID: "dev", Name: "Engineering Agent", Description: "code and projects", Target: "app-dev"},
	)
	require.NoError(t, err)
	return reg
}

// targetToID maps test registry targets back to responder IDs.
var targetToID = map[string]string{
	"app-finance": "finance",
	"app-hr":      "hr",
	"app-dev":     "dev",
}

// eventLog collects progress events from concurrent emitters.
type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) add(ev ProgressEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) all() []ProgressEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ProgressEvent, len(l.events))
	copy(out, l.events)
	return out
}
