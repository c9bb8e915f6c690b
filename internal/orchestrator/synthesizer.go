package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/dusk-indust/agentmux/internal/registry"
)

// Synthesizer merges sub-results into one answer with a single general
// completion call.
type Synthesizer struct {
	client   completion.Client
	registry *registry.Registry
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(client completion.Client, reg *registry.Registry) *Synthesizer {
	return &Synthesizer{client: client, registry: reg}
}

// Synthesize returns the merged answer. Failed sub-results are included as
// their error markers so the backend can acknowledge gaps.
func (s *Synthesizer) Synthesize(ctx context.Context, question, credential string, results []SubResult) (string, error) {
	text, err := s.client.Complete(ctx, completion.Request{
		Prompt:     BuildSynthesisPrompt(s.registry, question, results),
		Credential: credential,
	})
	if err != nil {
		return "", fmt.Errorf("synthesis call: %w", err)
	}
	return text, nil
}

// BuildSynthesisPrompt renders the merge instruction. Results appear in
// order, one block each, named by responder display name.
func BuildSynthesisPrompt(reg *registry.Registry, question string, results []SubResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("%s answered \"%s\": %s",
			reg.DisplayName(r.ResponderID), r.SubQuestion, r.Answer.String()))
	}

	var sb strings.Builder
	sb.WriteString("You are an answer synthesis expert. Several specialist agents answered ")
	sb.WriteString("parts of the user's question. Combine their answers into one complete, ")
	sb.WriteString("coherent reply.\n\n")

	sb.WriteString("Original question: ")
	sb.WriteString(question)
	sb.WriteString("\n\n")

	sb.WriteString("Agent answers:\n")
	sb.WriteString(strings.Join(blocks, "\n\n"))
	sb.WriteString("\n\n")

	sb.WriteString("Merge the information above into one complete reply. Requirements:\n")
	sb.WriteString("1. Preserve the accuracy of every answer.\n")
	sb.WriteString("2. Organize the reply in a logical order.\n")
	sb.WriteString("3. Remove duplicated information.\n")
	sb.WriteString("4. Use clear, structured Markdown formatting.\n")
	sb.WriteString("5. Stay professional and concise.\n")
	sb.WriteString("6. If an agent failed, state that its information is unavailable instead of omitting it.\n\n")
	sb.WriteString("Return only the merged reply.\n")
	return sb.String()
}
