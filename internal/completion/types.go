package completion

// Role identifies the sender of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of the chat transcript sent to the backend.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the JSON body POSTed to the completion endpoint.
type ChatRequest struct {
	// AppID routes the request to a domain responder. Omitted for general
	// completions.
	AppID       string        `json:"app_id,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// ChatResponse is the subset of the backend response the client reads.
type ChatResponse struct {
	Choices []Choice   `json:"choices"`
	Error   *ChatError `json:"error,omitempty"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// ChatError is an error object some backends embed in a 200 response.
type ChatError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// Content returns the first choice's message content, or "" when absent.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
