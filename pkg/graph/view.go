package graph

import "github.com/aretw0/switchboard/pkg/domain"

// View is a serializable snapshot of a graph, with edges resolved to state names.
// Adapters (HTTP, MCP, CLI) render it; it is never read back into a graph.
type View struct {
	Start string     `json:"start"`
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

// NodeView is the serializable form of a Node.
type NodeView struct {
	ID       NodeID        `json:"id"`
	Name     string        `json:"name"`
	Prompt   string        `json:"prompt"`
	Tools    []domain.Tool `json:"tools,omitempty"`
	Position Position      `json:"position"`
	Starting bool          `json:"starting,omitempty"`
}

// EdgeView is the serializable form of an Edge.
type EdgeView struct {
	ID                    EdgeID `json:"id"`
	Source                string `json:"source"`
	Target                string `json:"target"`
	Description           string `json:"description"`
	SpeakDuringTransition bool   `json:"speak_during_transition,omitempty"`
}

// View builds the serializable snapshot of the graph.
func (g *Graph) View() View {
	v := View{
		Nodes: make([]NodeView, 0, len(g.nodes)),
		Edges: make([]EdgeView, 0, len(g.edges)),
	}
	names := make(map[NodeID]string, len(g.nodes))
	for _, n := range g.nodes {
		names[n.ID] = n.Name
		starting := n.ID == g.start
		if starting {
			v.Start = n.Name
		}
		v.Nodes = append(v.Nodes, NodeView{
			ID:       n.ID,
			Name:     n.Name,
			Prompt:   n.Prompt,
			Tools:    domain.CloneTools(n.Tools),
			Position: n.Position,
			Starting: starting,
		})
	}
	for _, e := range g.edges {
		v.Edges = append(v.Edges, EdgeView{
			ID:                    e.ID,
			Source:                names[e.Source],
			Target:                names[e.Target],
			Description:           e.Description,
			SpeakDuringTransition: e.SpeakDuringTransition,
		})
	}
	return v
}
