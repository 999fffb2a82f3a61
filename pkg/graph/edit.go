package graph

import (
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

// AddState appends a node with a fresh placeholder name, an empty prompt, no tools
// and no edges. The name is unique among the nodes present at call time.
func (g *Graph) AddState() Node {
	n := g.appendNode(g.nextName(), "", nil)
	return n.copy()
}

// DeleteState removes the named node and every edge that uses it as source or target.
// If the node was the starting state, the first remaining node becomes the start.
// The last remaining node cannot be deleted.
func (g *Graph) DeleteState(name string) error {
	n, err := g.mustLookup("delete", name)
	if err != nil {
		return err
	}
	if len(g.nodes) == 1 {
		return fmt.Errorf("delete %q: %w", name, domain.ErrLastState)
	}

	nodes := make([]*Node, 0, len(g.nodes)-1)
	for _, other := range g.nodes {
		if other.ID != n.ID {
			nodes = append(nodes, other)
		}
	}
	g.nodes = nodes

	edges := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if e.Source != n.ID && e.Target != n.ID {
			edges = append(edges, e)
		}
	}
	g.edges = edges

	if g.start == n.ID {
		g.start = g.nodes[0].ID
	}
	return nil
}

// RenameState changes the display name of a node.
// The new name is trimmed; blank names and names held by another node are rejected.
// Edges reference nodes by ID, so every transition to or from the node follows the rename.
func (g *Graph) RenameState(oldName, newName string) error {
	n, err := g.mustLookup("rename", oldName)
	if err != nil {
		return err
	}
	name, err := normalizeName(newName)
	if err != nil {
		return fmt.Errorf("rename %q: %w", oldName, err)
	}
	if name == n.Name {
		return nil
	}
	if g.lookup(name) != nil {
		return fmt.Errorf("rename %q to %q: %w", oldName, name, domain.ErrDuplicateName)
	}
	n.Name = name
	return nil
}

// AddTransition appends an edge from source to target.
// Duplicate edges between the same pair are allowed; self-loops too.
func (g *Graph) AddTransition(source, target, description string) (Edge, error) {
	from, err := g.mustLookup("add transition from", source)
	if err != nil {
		return Edge{}, err
	}
	to, err := g.mustLookup("add transition to", target)
	if err != nil {
		return Edge{}, err
	}
	e := g.appendEdge(from.ID, to.ID, description, false)
	return *e, nil
}

// RemoveTransition removes exactly one edge by identity.
func (g *Graph) RemoveTransition(id EdgeID) error {
	i, e := g.lookupEdge(id)
	if e == nil {
		return fmt.Errorf("remove transition %q: %w", id, domain.ErrEdgeNotFound)
	}
	g.edges = append(g.edges[:i], g.edges[i+1:]...)
	return nil
}

// RewireTransition moves both ends of an existing edge, keeping its ID, description
// and speak flag.
func (g *Graph) RewireTransition(id EdgeID, source, target string) error {
	_, e := g.lookupEdge(id)
	if e == nil {
		return fmt.Errorf("rewire transition %q: %w", id, domain.ErrEdgeNotFound)
	}
	from, err := g.mustLookup("rewire transition from", source)
	if err != nil {
		return err
	}
	to, err := g.mustLookup("rewire transition to", target)
	if err != nil {
		return err
	}
	e.Source = from.ID
	e.Target = to.ID
	return nil
}

// SetTransitionDescription replaces the condition text of an edge.
func (g *Graph) SetTransitionDescription(id EdgeID, description string) error {
	_, e := g.lookupEdge(id)
	if e == nil {
		return fmt.Errorf("describe transition %q: %w", id, domain.ErrEdgeNotFound)
	}
	e.Description = description
	return nil
}

// SetSpeakDuringTransition sets the speak flag of an edge.
func (g *Graph) SetSpeakDuringTransition(id EdgeID, speak bool) error {
	_, e := g.lookupEdge(id)
	if e == nil {
		return fmt.Errorf("set speak on transition %q: %w", id, domain.ErrEdgeNotFound)
	}
	e.SpeakDuringTransition = speak
	return nil
}

// SetPrompt replaces the prompt of a node.
func (g *Graph) SetPrompt(name, prompt string) error {
	n, err := g.mustLookup("set prompt", name)
	if err != nil {
		return err
	}
	n.Prompt = prompt
	return nil
}

// SetTools replaces the tool list of a node. The list is copied.
func (g *Graph) SetTools(name string, tools []domain.Tool) error {
	n, err := g.mustLookup("set tools", name)
	if err != nil {
		return err
	}
	n.Tools = domain.CloneTools(tools)
	return nil
}

// DesignateStarting makes the named node the starting state.
func (g *Graph) DesignateStarting(name string) error {
	n, err := g.mustLookup("designate starting", name)
	if err != nil {
		return err
	}
	g.start = n.ID
	return nil
}

// MoveState updates the rendering position of a node.
func (g *Graph) MoveState(name string, pos Position) error {
	n, err := g.mustLookup("move", name)
	if err != nil {
		return err
	}
	n.Position = pos
	return nil
}
