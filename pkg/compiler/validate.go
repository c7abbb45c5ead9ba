package compiler

import (
	"fmt"
	"strings"

	"github.com/canopyhq/canopy/pkg/domain"
)

// CheckEdges reports edges that reference nodes missing from the graph.
// This is a separate validation pass: Compile itself passes ids through
// unchanged and never fails on a dangling reference.
func CheckEdges(nodes []domain.Node, edges []domain.Edge) error {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	var problems []string
	for _, e := range edges {
		if !known[e.Source] {
			problems = append(problems, fmt.Sprintf("edge %q: missing source node %q", e.ID, e.Source))
		}
		if !known[e.Target] {
			problems = append(problems, fmt.Sprintf("edge %q: missing target node %q", e.ID, e.Target))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("found %d dangling references:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}
