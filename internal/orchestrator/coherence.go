package orchestrator

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/agentmux/internal/registry"
)

// CoherenceIssue describes a problem found in a decomposition.
type CoherenceIssue struct {
	// IndexA and IndexB are the sub-question positions involved. IndexB is -1
	// for single-entry issues.
	IndexA      int
	IndexB      int
	Description string
}

// CheckCoherence scans a decomposition for duplicate sub-questions and
// responders missing from reg. Issues are advisory; dispatch proceeds anyway.
func CheckCoherence(subs []SubQuestion, reg *registry.Registry) []CoherenceIssue {
	var issues []CoherenceIssue

	seen := make(map[string]int, len(subs))
	for i, sq := range subs {
		key := strings.ToLower(strings.Join(strings.Fields(sq.Text), " "))
		if first, dup := seen[key]; dup {
			issues = append(issues, CoherenceIssue{
				IndexA:      first,
				IndexB:      i,
				Description: fmt.Sprintf("sub-question %d repeats sub-question %d", i+1, first+1),
			})
		} else {
			seen[key] = i
		}

		if _, ok := reg.Lookup(sq.ResponderID); !ok {
			issues = append(issues, CoherenceIssue{
				IndexA:      i,
				IndexB:      -1,
				Description: fmt.Sprintf("sub-question %d is routed to unregistered responder %q", i+1, sq.ResponderID),
			})
		}
	}
	return issues
}
