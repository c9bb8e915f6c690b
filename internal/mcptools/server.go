package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with the multi_agent_chat and
// list_agents tools registered.
func NewMCPServer(svc *ChatService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "agentmux",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolMultiAgentChat,
		Description: multiAgentChatDescription,
	}, svc.MultiAgentChat)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolListAgents,
		Description: "List the specialist agents questions can be routed to, with their descriptions.",
	}, svc.ListAgents)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// StreamableHandler serves the MCP server over streamable HTTP.
func StreamableHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
}
