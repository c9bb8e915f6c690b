package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() []SubResult {
	return []SubResult{
		{SubQuestion: "How many engineers?", ResponderID: "hr", Answer: Succeeded("Hire 4 engineers.")},
		{SubQuestion: "Budget impact?", ResponderID: "finance", Answer: Failed(errors.New("timeout"))},
		{SubQuestion: "Legal review?", ResponderID: "legal", Answer: Failed(&NotFoundError{ResponderID: "legal"})},
	}
}

func TestBuildSynthesisPrompt(t *testing.T) {
	prompt := BuildSynthesisPrompt(testRegistry(t), "Plan Q3 hiring", sampleResults())

	assert.Contains(t, prompt, "Original question: Plan Q3 hiring")
	assert.Contains(t, prompt, `HR Agent answered "How many engineers?": Hire 4 engineers.`)
	assert.Contains(t, prompt, `Finance Agent answered "Budget impact?": [Agent call failed: timeout]`)
	assert.Contains(t, prompt, `legal answered "Legal review?": [Agent legal not found]`,
		"unregistered responders are named by id")

	for _, rule := range []string{
		"Preserve the accuracy of every answer.",
		"Organize the reply in a logical order.",
		"Remove duplicated information.",
		"Use clear, structured Markdown formatting.",
		"Stay professional and concise.",
		"state that its information is unavailable instead of omitting it",
	} {
		assert.Contains(t, prompt, rule)
	}
	assert.True(t, strings.HasSuffix(prompt, "Return only the merged reply.\n"))

	hr := strings.Index(prompt, "HR Agent answered")
	fin := strings.Index(prompt, "Finance Agent answered")
	assert.Less(t, hr, fin, "results keep dispatch order")
}

func TestSynthesize(t *testing.T) {
	client := &fakeClient{synthesize: fixed("Merged answer.")}
	s := NewSynthesizer(client, testRegistry(t))

	out, err := s.Synthesize(context.Background(), "q", "key", sampleResults())
	require.NoError(t, err)
	assert.Equal(t, "Merged answer.", out)

	req := client.lastGeneral(t)
	assert.Equal(t, "key", req.Credential)
	assert.True(t, strings.HasPrefix(req.Prompt, "You are an answer synthesis expert"))
}

func TestSynthesize_Error(t *testing.T) {
	client := &fakeClient{
		synthesize: func(context.Context, completion.Request) (string, error) {
			return "", &completion.StatusError{StatusCode: 500}
		},
	}
	s := NewSynthesizer(client, testRegistry(t))

	_, err := s.Synthesize(context.Background(), "q", "key", nil)
	var se *completion.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 500, se.StatusCode)
}

func TestBuildTrace(t *testing.T) {
	trace := BuildTrace(testRegistry(t), sampleResults())

	want := "\n\n---\n\n**Processing details**\n\n" +
		"1. **HR Agent** answered \"How many engineers?\"\n" +
		"2. **Finance Agent** answered \"Budget impact?\"\n" +
		"3. **legal** answered \"Legal review?\"\n"
	assert.Equal(t, want, trace)
}

func TestFinalAnswer(t *testing.T) {
	assert.Equal(t, "synth\n"+traceHeader, FinalAnswer("synth", traceHeader))
}

func TestAnswerString(t *testing.T) {
	assert.Equal(t, "text", Succeeded("text").String())
	assert.True(t, Succeeded("").OK())
	assert.Equal(t, "[Agent x not found]", Failed(&NotFoundError{ResponderID: "x"}).String())
	assert.Equal(t, "[Agent call failed: nope]", Failed(errors.New("nope")).String())
}
