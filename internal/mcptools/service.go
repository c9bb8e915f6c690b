package mcptools

import (
	"context"

	"github.com/dusk-indust/agentmux/internal/orchestrator"
	"github.com/dusk-indust/agentmux/internal/registry"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolMultiAgentChat is the name of the orchestration tool.
const ToolMultiAgentChat = "multi_agent_chat"

// ToolListAgents is the name of the registry listing tool.
const ToolListAgents = "list_agents"

const multiAgentChatDescription = `Multi-agent collaborative answering.

- Identifies which domains a question touches
- Splits complex questions into sub-questions
- Asks the matching specialist agents in parallel
- Merges their answers into one reply

Use for cross-domain questions, queries that need several kinds of
information, or several asks at once.`

// ChatService handles MCP tool calls by delegating to an Orchestrator.
type ChatService struct {
	orch     orchestrator.Orchestrator
	registry *registry.Registry
}

// NewChatService creates a ChatService.
func NewChatService(orch orchestrator.Orchestrator, reg *registry.Registry) *ChatService {
	return &ChatService{orch: orch, registry: reg}
}

// Chat runs one orchestration and returns the answer text. It never fails:
// missing input and pipeline failures are reported as text.
func (s *ChatService) Chat(ctx context.Context, question, appKey string) string {
	return s.orch.Answer(ctx, orchestrator.Invocation{
		Question:   question,
		Credential: appKey,
	})
}

// MultiAgentChat is the multi_agent_chat tool handler.
func (s *ChatService) MultiAgentChat(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MultiAgentChatInput,
) (*mcp.CallToolResult, MultiAgentChatOutput, error) {
	answer := s.Chat(ctx, input.Question, input.AppKey)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: answer}},
	}, MultiAgentChatOutput{Answer: answer}, nil
}

// ListAgents is the list_agents tool handler.
func (s *ChatService) ListAgents(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListAgentsInput,
) (*mcp.CallToolResult, ListAgentsOutput, error) {
	return nil, ListAgentsOutput{Agents: s.Agents()}, nil
}

// Agents lists the registered responders in registry order.
func (s *ChatService) Agents() []AgentInfo {
	all := s.registry.All()
	out := make([]AgentInfo, 0, len(all))
	for _, r := range all {
		out = append(out, AgentInfo{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	return out
}

// Descriptors returns the tools/list payload for the JSON envelope endpoint.
func Descriptors() []ToolDescriptor {
	return []ToolDescriptor{{
		Name:        ToolMultiAgentChat,
		Description: multiAgentChatDescription,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{
					"type":        "string",
					"description": "The user's question; may span several domains",
				},
				"app_key": map[string]any{
					"type":        "string",
					"description": "Access key used to call every responder",
				},
			},
			"required": []string{"question", "app_key"},
		},
	}}
}
