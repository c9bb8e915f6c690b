package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/dusk-indust/agentmux/internal/metrics"
	"github.com/dusk-indust/agentmux/internal/registry"
	"go.uber.org/zap"
)

var (
	errNoSubQuestionsKey  = errors.New(`response has no "sub_questions" key`)
	errSubQuestionsNotSeq = errors.New(`"sub_questions" is not a list`)
	errNoUsableEntries    = errors.New(`"sub_questions" has no usable entries`)
)

// Decomposer turns a question into routed sub-questions with one general
// completion call.
type Decomposer struct {
	client   completion.Client
	registry *registry.Registry
	fallback string
	logger   *zap.Logger
}

// NewDecomposer creates a Decomposer. fallback is the responder ID that gets
// the whole question when the completion cannot be parsed.
func NewDecomposer(client completion.Client, reg *registry.Registry, fallback string, logger *zap.Logger) *Decomposer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decomposer{
		client:   client,
		registry: reg,
		fallback: fallback,
		logger:   logger,
	}
}

// Decompose asks the completion backend to split question into sub-questions.
//
// A transport or backend failure is returned as an error. A response that
// cannot be parsed is not an error: the whole question is routed to the
// fallback responder with priority 1 and usedFallback is true.
func (d *Decomposer) Decompose(ctx context.Context, question, credential string) (subs []SubQuestion, usedFallback bool, err error) {
	text, err := d.client.Complete(ctx, completion.Request{
		Prompt:     BuildDecompositionPrompt(d.registry, question),
		Credential: credential,
	})
	if err != nil {
		return nil, false, fmt.Errorf("decomposition call: %w", err)
	}

	subs, perr := ParseDecomposition(text)
	if perr != nil {
		d.logger.Warn("decomposition unparseable, routing whole question to fallback responder",
			zap.String("fallback", d.fallback),
			zap.Error(perr),
			zap.String("raw", text))
		metrics.DecompositionFallbacks.Inc()
		return []SubQuestion{{
			Text:        question,
			ResponderID: d.fallback,
			Priority:    1,
		}}, true, nil
	}
	return subs, false, nil
}

// BuildDecompositionPrompt renders the instruction sent to the completion
// backend. Responders are listed in registry order.
func BuildDecompositionPrompt(reg *registry.Registry, question string) string {
	var sb strings.Builder
	sb.WriteString("You are a task decomposition expert. Split the user's question into ")
	sb.WriteString("sub-questions and assign each one to the most suitable agent.\n\n")

	sb.WriteString("Available agents:\n")
	for _, r := range reg.All() {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", r.ID, r.Name, r.Description)
	}

	sb.WriteString("\nUser question: ")
	sb.WriteString(question)
	sb.WriteString("\n\n")

	sb.WriteString("Reply with JSON only, in exactly this shape:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"sub_questions\": [\n")
	sb.WriteString("    {\"sub_question\": \"...\", \"agent_id\": \"...\", \"priority\": 1}\n")
	sb.WriteString("  ]\n")
	sb.WriteString("}\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("1. Each sub-question must be answerable on its own.\n")
	sb.WriteString("2. agent_id must be one of the agents listed above.\n")
	sb.WriteString("3. priority: 1 is highest, 3 is lowest.\n")
	sb.WriteString("4. If the question does not need splitting, return a single sub-question.\n")
	return sb.String()
}

// rawSubQuestion is the wire shape of one decomposition entry.
type rawSubQuestion struct {
	SubQuestion string       `json:"sub_question"`
	AgentID     string       `json:"agent_id"`
	Priority    flexPriority `json:"priority"`
}

// flexPriority accepts a JSON number or a numeric string. Anything else
// decodes to 0.
type flexPriority int

func (p *flexPriority) UnmarshalJSON(data []byte) error {
	*p = 0
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = flexPriority(int(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*p = flexPriority(int(v))
		}
	}
	return nil
}

// ParseDecomposition extracts sub-questions from a completion response,
// tolerating a surrounding markdown code fence. Entries without text are
// dropped. Responder IDs are not checked against the registry here.
func ParseDecomposition(text string) ([]SubQuestion, error) {
	body := stripCodeFence(text)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("decode decomposition: %w", err)
	}

	raw, ok := envelope["sub_questions"]
	if !ok {
		return nil, errNoSubQuestionsKey
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", errSubQuestionsNotSeq, err)
	}

	subs := make([]SubQuestion, 0, len(entries))
	for _, entry := range entries {
		var rs rawSubQuestion
		if err := json.Unmarshal(entry, &rs); err != nil {
			continue
		}
		txt := strings.TrimSpace(rs.SubQuestion)
		if txt == "" {
			continue
		}
		subs = append(subs, SubQuestion{
			Text:        txt,
			ResponderID: strings.TrimSpace(rs.AgentID),
			Priority:    int(rs.Priority),
		})
	}
	if len(subs) == 0 {
		return nil, errNoUsableEntries
	}
	return subs, nil
}

// stripCodeFence removes a leading ``` or ```json (any case, with or without
// a following newline) and one trailing ``` from text.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = s[3:]
	if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		s = s[4:]
	} else if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		// other language tag on the fence line
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
