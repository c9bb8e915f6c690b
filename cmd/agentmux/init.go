package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/agentmux/internal/registry"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// agentmuxMCPEntry is the MCP server configuration for the agentmux binary.
var agentmuxMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "agentmux",
  "args": ["mcp"]
}`)

const starterConfig = `# agentmux configuration. Every key can be overridden with an
# AGENTMUX_-prefixed environment variable, e.g. AGENTMUX_DISPATCH_TIMEOUT=30s.
completion:
  endpoint: https://adp.woa.com/v1/chat/completions
  credential_header: X-ADP-App-Key
  timeout: 60s
  temperature: 0.3
dispatch:
  timeout: 60s
registry:
  file: responders.yaml
  fallback_responder: finance
server:
  addr: ":8080"
log:
  level: info
  format: json
tracing:
  enabled: false
`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter config, responder registry and .mcp.json entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd.OutOrStdout(), dir, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files and entries")
	return cmd
}

// runInit writes agentmux.yaml, responders.yaml and the agentmux entry of
// .mcp.json into projectRoot.
func runInit(w io.Writer, projectRoot string, force bool) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}

	files := []struct {
		name string
		data []byte
	}{
		{"agentmux.yaml", []byte(starterConfig)},
		{"responders.yaml", registry.DefaultYAML()},
	}
	for _, f := range files {
		dest := filepath.Join(abs, f.name)
		if !force {
			if _, err := os.Stat(dest); err == nil {
				fmt.Fprintf(w, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(abs, dest))
				continue
			}
		}
		if err := os.WriteFile(dest, f.data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
		fmt.Fprintf(w, "  created %s\n", dotRelative(abs, dest))
	}

	if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSetup complete. Edit responders.yaml with your responder targets.")
	return nil
}

// mergeMCPConfig creates or merges the agentmux entry into .mcp.json.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["agentmux"]; exists && !force {
		fmt.Fprintln(w, "  skipped .mcp.json agentmux entry (exists, use --force to overwrite)")
		return nil
	}

	cfg.MCPServers["agentmux"] = agentmuxMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with agentmux MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
