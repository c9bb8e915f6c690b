package orchestrator

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/agentmux/internal/registry"
)

const traceHeader = "\n\n---\n\n**Processing details**\n\n"

// BuildTrace renders which responder handled which sub-question, numbered
// from 1 in dispatch order.
func BuildTrace(reg *registry.Registry, results []SubResult) string {
	var sb strings.Builder
	sb.WriteString(traceHeader)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. **%s** answered \"%s\"\n", i+1, reg.DisplayName(r.ResponderID), r.SubQuestion)
	}
	return sb.String()
}

// FinalAnswer appends trace to synthesis.
func FinalAnswer(synthesis, trace string) string {
	return synthesis + "\n" + trace
}
