package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Validate checks every structural invariant of the graph.
// Edit operations preserve them, so a failure here is a programming error.
func (g *Graph) Validate() error {
	var problems []string

	if len(g.nodes) == 0 {
		problems = append(problems, "graph has no nodes")
	}

	ids := make(map[NodeID]bool, len(g.nodes))
	names := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		if ids[n.ID] {
			problems = append(problems, fmt.Sprintf("node id %d is used twice", n.ID))
		}
		ids[n.ID] = true

		if strings.TrimSpace(n.Name) == "" {
			problems = append(problems, fmt.Sprintf("node %d has a blank name", n.ID))
		} else if names[n.Name] {
			problems = append(problems, fmt.Sprintf("state name %q is used twice", n.Name))
		}
		names[n.Name] = true
	}

	if len(g.nodes) > 0 && !ids[g.start] {
		problems = append(problems, fmt.Sprintf("starting node %d does not exist", g.start))
	}

	edgeIDs := make(map[EdgeID]bool, len(g.edges))
	for _, e := range g.edges {
		if edgeIDs[e.ID] {
			problems = append(problems, fmt.Sprintf("edge id %q is used twice", e.ID))
		}
		edgeIDs[e.ID] = true
		if !ids[e.Source] {
			problems = append(problems, fmt.Sprintf("edge %q has a dangling source %d", e.ID, e.Source))
		}
		if !ids[e.Target] {
			problems = append(problems, fmt.Sprintf("edge %q has a dangling target %d", e.ID, e.Target))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrCorruptGraph, strings.Join(problems, "; "))
	}
	return nil
}
