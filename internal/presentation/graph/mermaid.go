package graph

import (
	"fmt"
	"strings"

	model "github.com/aretw0/switchboard/pkg/graph"
)

// Overlay marks states to emphasize on the rendered graph.
type Overlay struct {
	Highlighted []string // e.g. states changed since load
	Selected    string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from an editor graph.
// Nodes are keyed by their internal ID so any state name renders safely.
// It applies semantic styling:
// - Starting state: ((Circle))
// - State with tools: [[Subroutine]]
// - Default: [Rectangle]
// Transitions during which the agent keeps speaking are drawn thick (==>).
func GenerateMermaid(g *model.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	start := g.Start()
	for _, node := range g.Nodes() {
		opener, closer := "[", "]"
		switch {
		case node.ID == start.ID:
			opener, closer = "((", "))" // Circle
		case len(node.Tools) > 0:
			opener, closer = "[[", "]]" // Subroutine
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", mermaidID(node.ID), opener, escapeLabel(node.Name), closer))
	}

	for _, e := range g.Edges() {
		arrow := "-->"
		if e.SpeakDuringTransition {
			arrow = "==>"
		}
		if e.Description != "" {
			label := escapeLabel(e.Description)
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			if e.SpeakDuringTransition {
				arrow = fmt.Sprintf("== \"%s\" ==>", label)
			}
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", mermaidID(e.Source), arrow, mermaidID(e.Target)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef highlighted fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[model.NodeID]bool)
		for _, name := range overlay.Highlighted {
			n, ok := g.Node(name)
			if !ok || seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			sb.WriteString(fmt.Sprintf("    class %s highlighted;\n", mermaidID(n.ID)))
		}
		if n, ok := g.Node(overlay.Selected); ok {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", mermaidID(n.ID)))
		}
	}

	return sb.String()
}

func mermaidID(id model.NodeID) string {
	return fmt.Sprintf("n%d", id)
}

// escapeLabel replaces characters Mermaid cannot hold inside a quoted label.
func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}
