package mcptools

// --- MCP tool types ---

// MultiAgentChatInput is the input for the multi_agent_chat tool. Both fields
// are optional in the schema so a missing value reaches the orchestrator and
// produces its user-facing error text instead of a protocol error.
type MultiAgentChatInput struct {
	Question string `json:"question,omitempty" jsonschema:"the user's question; may span several domains"`
	AppKey   string `json:"app_key,omitempty" jsonschema:"access key forwarded to the completion backend and every responder"`
}

// MultiAgentChatOutput is the result of the multi_agent_chat tool.
type MultiAgentChatOutput struct {
	Answer string `json:"answer"`
}

// ListAgentsInput is the input for the list_agents tool.
type ListAgentsInput struct{}

// ListAgentsOutput is the result of the list_agents tool.
type ListAgentsOutput struct {
	Agents []AgentInfo `json:"agents"`
}

// AgentInfo describes one registered responder. The routing target is not
// exposed.
type AgentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToolDescriptor is the tools/list entry served by the JSON envelope
// endpoint.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}
