package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/agentmux/internal/export"
	"github.com/dusk-indust/agentmux/internal/orchestrator"
)

// appKeyEnv supplies --app-key when the flag is not given.
const appKeyEnv = "AGENTMUX_APP_KEY"

type askOptions struct {
	appKey  string
	format  string
	verbose bool
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	ao := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and exit",
		Long: `Answer one question and exit.

Output formats:
  text     the final answer with its processing details (default)
  json     a structured report of every sub-question and answer
  mermaid  a flowchart of the question, sub-questions and responders

The access key comes from --app-key or $` + appKeyEnv + `.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, ao, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&ao.appKey, "app-key", "", "access key for the completion backend")
	cmd.Flags().StringVarP(&ao.format, "format", "f", "text", "output format: text, json or mermaid")
	cmd.Flags().BoolVarP(&ao.verbose, "verbose", "v", false, "print progress to stderr")
	return cmd
}

func runAsk(cmd *cobra.Command, opts *rootOptions, ao *askOptions, question string) error {
	switch ao.format {
	case "text", "json", "mermaid":
	default:
		return fmt.Errorf("unknown format %q (want text, json or mermaid)", ao.format)
	}

	a, err := newApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.close()

	key := ao.appKey
	if key == "" {
		key = os.Getenv(appKeyEnv)
	}
	inv := orchestrator.Invocation{Question: question, Credential: key}

	var done chan struct{}
	if ao.verbose {
		pr := orchestrator.NewProgressReporter()
		inv.OnProgress = pr.Emit
		done = drainProgress(pr, cmd.ErrOrStderr())
		defer func() {
			pr.Close()
			<-done
		}()
	}

	out := cmd.OutOrStdout()
	res, err := a.pipeline.Run(cmd.Context(), inv)
	if err != nil {
		fmt.Fprintln(out, orchestrator.FailureMessage(err))
		return err
	}

	switch ao.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(export.NewReport(res, a.registry))
	case "mermaid":
		_, err := io.WriteString(out, export.Mermaid(res, a.registry))
		return err
	default:
		_, err := fmt.Fprintln(out, res.FinalAnswer)
		return err
	}
}

// drainProgress prints events until pr is closed. The returned channel is
// closed once every buffered event has been written.
func drainProgress(pr *orchestrator.ProgressReporter, w io.Writer) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range pr.Subscribe() {
			fmt.Fprintln(w, orchestrator.FormatProgress(ev))
		}
	}()
	return done
}
