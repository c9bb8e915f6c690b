//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/dusk-indust/agentmux/internal/orchestrator"
	"github.com/dusk-indust/agentmux/internal/registry"
)

const (
	hiringQuestion = "We plan to hire engineers in Q3. How many, and what does it do to the budget?"
	budgetQuestion = "What is the Q3 budget?"
	synthesisReply = "Hire four engineers in Q3; the budget absorbs 1.2M."
)

// backend is a fake chat-completions server. It decomposes by keyword,
// answers per app_id and records every prompt.
type backend struct {
	t *testing.T

	mu      sync.Mutex
	prompts []string
	appIDs  []string

	// down lists app_ids that answer 503.
	down map[string]bool
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{t: t, down: map[string]bool{}}
	ts := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(ts.Close)
	return b, ts
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	var req completion.ChatRequest
	require.NoError(b.t, json.NewDecoder(r.Body).Decode(&req))
	assert.Equal(b.t, "e2e-key", r.Header.Get(completion.DefaultCredentialHeader))

	prompt := req.Messages[0].Content
	b.mu.Lock()
	b.prompts = append(b.prompts, prompt)
	if req.AppID != "" {
		b.appIDs = append(b.appIDs, req.AppID)
	}
	down := b.down[req.AppID]
	b.mu.Unlock()

	if down {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	var text string
	switch {
	case req.AppID == "app-hr":
		text = "Four backend engineers."
	case req.AppID == "app-finance":
		text = "Q3 hiring adds 1.2M to opex."
	case req.AppID != "":
		text = "no comment"
	case strings.Contains(prompt, "task decomposition expert") && strings.Contains(prompt, "hire"):
		text = "```json\n" + `{"sub_questions":[
			{"sub_question":"How many engineers should we hire in Q3?","agent_id":"hr","priority":1},
			{"sub_question":"What does the Q3 hiring plan cost?","agent_id":"finance","priority":"2"}
		]}` + "\n```"
	case strings.Contains(prompt, "task decomposition expert"):
		text = `{"sub_questions":[{"sub_question":"What is the Q3 budget?","agent_id":"finance","priority":1}]}`
	default:
		text = synthesisReply
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(completion.ChatResponse{
		Choices: []completion.Choice{{Message: completion.ChatMessage{Role: completion.RoleAssistant, Content: text}}},
	})
}

func (b *backend) lastPrompt() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.prompts[len(b.prompts)-1]
}

func (b *backend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.prompts)
}

func loadRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Load(filepath.Join("..", "..", "testdata", "fixtures", "responders.yaml"))
	require.NoError(t, err)
	return reg
}

func newPipeline(t *testing.T, endpoint string) *orchestrator.Pipeline {
	t.Helper()
	client := completion.NewHTTPClient(completion.WithEndpoint(endpoint), completion.WithTimeout(5*time.Second))
	cfg := orchestrator.DefaultConfig()
	cfg.DispatchTimeout = 5 * time.Second
	p, err := orchestrator.New(cfg, loadRegistry(t), client, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p
}

func TestHiringPlanScenario(t *testing.T) {
	b, ts := newBackend(t)
	p := newPipeline(t, ts.URL)

	res, err := p.Run(context.Background(), orchestrator.Invocation{Question: hiringQuestion, Credential: "e2e-key"})
	require.NoError(t, err)

	require.Len(t, res.SubQuestions, 2)
	assert.Equal(t, 2, res.SubQuestions[1].Priority, "string priority is accepted")

	require.Len(t, res.SubResults, 2)
	assert.Equal(t, "hr", res.SubResults[0].ResponderID)
	assert.Equal(t, "Four backend engineers.", res.SubResults[0].Answer.Text)
	assert.Equal(t, "finance", res.SubResults[1].ResponderID)
	assert.Equal(t, "Q3 hiring adds 1.2M to opex.", res.SubResults[1].Answer.Text)

	synth := b.lastPrompt()
	assert.Contains(t, synth, `HR Agent answered "How many engineers should we hire in Q3?": Four backend engineers.`)
	assert.Contains(t, synth, `Finance Agent answered "What does the Q3 hiring plan cost?": Q3 hiring adds 1.2M to opex.`)

	assert.Contains(t, res.Trace, "**HR Agent**")
	assert.Contains(t, res.Trace, "**Finance Agent**")
	assert.Equal(t, 4, b.calls())
}

func TestSingleDomainQuestion(t *testing.T) {
	b, ts := newBackend(t)
	p := newPipeline(t, ts.URL)

	res, err := p.Run(context.Background(), orchestrator.Invocation{Question: budgetQuestion, Credential: "e2e-key"})
	require.NoError(t, err)

	require.Len(t, res.SubQuestions, 1)
	assert.Equal(t, "finance", res.SubQuestions[0].ResponderID)
	assert.Equal(t, []string{"app-finance"}, b.appIDs)
}

func TestResponderOutage(t *testing.T) {
	b, ts := newBackend(t)
	b.down["app-hr"] = true
	p := newPipeline(t, ts.URL)

	res, err := p.Run(context.Background(), orchestrator.Invocation{Question: hiringQuestion, Credential: "e2e-key"})
	require.NoError(t, err, "a responder outage is not fatal")

	assert.False(t, res.SubResults[0].Answer.OK())
	assert.True(t, res.SubResults[1].Answer.OK())
	assert.Contains(t, b.lastPrompt(), "[Agent call failed: completion: HTTP 503")
	assert.Equal(t, synthesisReply, res.Synthesis)
}

func TestBackendDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer ts.Close()
	p := newPipeline(t, ts.URL)

	answer := p.Answer(context.Background(), orchestrator.Invocation{Question: hiringQuestion, Credential: "e2e-key"})
	assert.True(t, strings.HasPrefix(answer, "Processing failed: "))
	assert.Contains(t, answer, "HTTP 502")
}
