package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/agentmux/internal/orchestrator"
	"github.com/dusk-indust/agentmux/internal/registry"
)

// Mermaid produces a flowchart of one invocation: the question fans out to
// its sub-questions, each of which points at its responder. Failed
// dispatches use a dotted edge.
func Mermaid(res *orchestrator.Result, reg *registry.Registry) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "  Q[\"%s\"]\n", label(res.Question))

	// Responder nodes are emitted once each, in first-use order.
	responderIDs := make(map[string]string)
	for i, sr := range res.SubResults {
		sqID := fmt.Sprintf("S%d", i+1)
		fmt.Fprintf(&sb, "  %s[\"%d. %s\"]\n", sqID, i+1, label(sr.SubQuestion))
		fmt.Fprintf(&sb, "  Q --> %s\n", sqID)

		rID, ok := responderIDs[sr.ResponderID]
		if !ok {
			rID = fmt.Sprintf("R%d", len(responderIDs)+1)
			responderIDs[sr.ResponderID] = rID
			fmt.Fprintf(&sb, "  %s([\"%s\"])\n", rID, label(reg.DisplayName(sr.ResponderID)))
		}

		if sr.Answer.OK() {
			fmt.Fprintf(&sb, "  %s --> %s\n", sqID, rID)
		} else {
			fmt.Fprintf(&sb, "  %s -.-> %s\n", sqID, rID)
		}
	}

	return sb.String()
}

// label makes s safe inside a quoted Mermaid node label and caps its length.
func label(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, `"`, "#quot;")
	const maxLen = 60
	if r := []rune(s); len(r) > maxLen {
		s = string(r[:maxLen-3]) + "..."
	}
	return s
}
