package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/dusk-indust/agentmux/internal/export"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// isolate runs the test in an empty directory with no ambient config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("AGENTMUX_CONFIG", "")
	t.Setenv(appKeyEnv, "")
	t.Setenv("AGENTMUX_LOG_LEVEL", "error")
	return dir
}

// fakeBackend answers decomposition, responder and synthesis requests.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completion.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt := req.Messages[0].Content

		var text string
		switch {
		case req.AppID != "":
			text = "answer from " + req.AppID
		case strings.Contains(prompt, "task decomposition expert"):
			text = `{"sub_questions":[
				{"sub_question":"How many engineers?","agent_id":"hr","priority":1},
				{"sub_question":"Budget impact?","agent_id":"finance","priority":2}]}`
		default:
			text = "merged reply"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion.ChatResponse{
			Choices: []completion.Choice{{Message: completion.ChatMessage{Role: completion.RoleAssistant, Content: text}}},
		})
	}))
	t.Cleanup(ts.Close)
	t.Setenv("AGENTMUX_COMPLETION_ENDPOINT", ts.URL)
	return ts
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "agentmux version dev\n", out)
}

func TestInit(t *testing.T) {
	dir := isolate(t)
	target := filepath.Join(dir, "project")

	out, err := execute(t, "init", target)
	require.NoError(t, err)
	assert.Contains(t, out, "created ./agentmux.yaml")
	assert.Contains(t, out, "created ./responders.yaml")
	assert.Contains(t, out, "created .mcp.json")

	data, err := os.ReadFile(filepath.Join(target, ".mcp.json"))
	require.NoError(t, err)
	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, string(cfg.MCPServers["agentmux"]), `"mcp"`)

	out, err = execute(t, "init", target)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped ./agentmux.yaml")
	assert.Contains(t, out, "skipped .mcp.json agentmux entry")
}

func TestInit_MergesExistingMCPConfig(t *testing.T) {
	dir := isolate(t)
	mcpPath := filepath.Join(dir, ".mcp.json")
	require.NoError(t, os.WriteFile(mcpPath, []byte(`{"mcpServers":{"other":{"type":"stdio","command":"other"}}}`), 0o644))

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "updated .mcp.json")

	data, err := os.ReadFile(mcpPath)
	require.NoError(t, err)
	var cfg mcpConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Contains(t, cfg.MCPServers, "other")
	assert.Contains(t, cfg.MCPServers, "agentmux")
}

func TestInit_ConfigIsLoadable(t *testing.T) {
	isolate(t)
	_, err := execute(t, "init")
	require.NoError(t, err)

	out, err := execute(t, "agents")
	require.NoError(t, err)
	assert.Contains(t, out, "finance (fallback)")
	assert.Contains(t, out, "Engineering Agent")
}

func TestAgents_Defaults(t *testing.T) {
	isolate(t)

	out, err := execute(t, "agents")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "finance (fallback)"))
	assert.True(t, strings.HasPrefix(lines[2], "hr"))
	assert.True(t, strings.HasPrefix(lines[3], "dev"))
}

func TestAsk_Text(t *testing.T) {
	isolate(t)
	fakeBackend(t)

	out, err := execute(t, "ask", "--app-key", "k", "Plan", "Q3", "hiring")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "merged reply\n"))
	assert.Contains(t, out, "1. **HR Agent** answered \"How many engineers?\"")
	assert.Contains(t, out, "2. **Finance Agent** answered \"Budget impact?\"")
}

func TestAsk_JSON(t *testing.T) {
	isolate(t)
	fakeBackend(t)
	t.Setenv(appKeyEnv, "from-env")

	out, err := execute(t, "ask", "--format", "json", "Plan Q3 hiring")
	require.NoError(t, err)

	var report export.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Plan Q3 hiring", report.Question)
	require.Len(t, report.SubQuestions, 2)
	assert.Equal(t, "answered", report.SubQuestions[0].Status)
	assert.Equal(t, "answer from your-hr-app-id", report.SubQuestions[0].Answer)
}

func TestAsk_Mermaid(t *testing.T) {
	isolate(t)
	fakeBackend(t)

	out, err := execute(t, "ask", "--app-key", "k", "-f", "mermaid", "Plan Q3 hiring")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "S2 --> R2")
}

func TestAsk_MissingAppKey(t *testing.T) {
	isolate(t)
	fakeBackend(t)

	out, err := execute(t, "ask", "Plan Q3 hiring")
	require.Error(t, err)
	assert.Equal(t, "Error: missing required parameter question or app_key\n", out)
}

func TestAsk_BadFormat(t *testing.T) {
	isolate(t)

	_, err := execute(t, "ask", "--format", "yaml", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
