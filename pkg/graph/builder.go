package graph

import (
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Builder assembles a Graph node by node. It is used by the transform layer,
// which repairs malformed input before handing it over.
type Builder struct {
	g        *Graph
	start    NodeID
	reserved map[string]bool
}

// NewBuilder creates a builder for an empty graph.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{g: newGraph(opts...), reserved: make(map[string]bool)}
}

// Reserve marks names that nodes added later will claim.
// Placeholder and Taken treat them as used before those nodes exist.
func (b *Builder) Reserve(names ...string) {
	for _, name := range names {
		b.reserved[name] = true
	}
}

// Taken reports whether a name is held by a node or reserved.
func (b *Builder) Taken(name string) bool {
	return b.reserved[name] || b.Has(name)
}

// Has reports whether a node with the given name was already added.
func (b *Builder) Has(name string) bool {
	return b.g.lookup(name) != nil
}

// Lookup returns the ID of the named node.
func (b *Builder) Lookup(name string) (NodeID, bool) {
	n := b.g.lookup(name)
	if n == nil {
		return 0, false
	}
	return n.ID, true
}

// AddNode appends a node at the default grid position.
func (b *Builder) AddNode(name, prompt string, tools []domain.Tool) (NodeID, error) {
	clean, err := normalizeName(name)
	if err != nil {
		return 0, err
	}
	if b.Has(clean) {
		return 0, fmt.Errorf("add node %q: %w", clean, domain.ErrDuplicateName)
	}
	return b.g.appendNode(clean, prompt, tools).ID, nil
}

// AddEdge appends an edge between two nodes already added.
func (b *Builder) AddEdge(source, target NodeID, description string, speak bool) (EdgeID, error) {
	if b.g.lookupID(source) == nil || b.g.lookupID(target) == nil {
		return "", fmt.Errorf("add edge %d -> %d: %w", source, target, domain.ErrStateNotFound)
	}
	return b.g.appendEdge(source, target, description, speak).ID, nil
}

// SetStart designates the starting node.
func (b *Builder) SetStart(id NodeID) error {
	if b.g.lookupID(id) == nil {
		return fmt.Errorf("set start %d: %w", id, domain.ErrStateNotFound)
	}
	b.start = id
	return nil
}

// Placeholder returns a fresh placeholder name that is neither used nor reserved.
func (b *Builder) Placeholder() string {
	for {
		if name := b.g.nextName(); !b.reserved[name] {
			return name
		}
	}
}

// Build finishes the graph. An empty builder yields the single default node;
// without an explicit start, the first node is the starting state.
func (b *Builder) Build() *Graph {
	g := b.g
	if len(g.nodes) == 0 {
		g.nameSeq = 0
		n := g.appendNode(g.nextName(), "", nil)
		b.start = n.ID
	}
	if b.start == 0 {
		b.start = g.nodes[0].ID
	}
	g.start = b.start
	if g.nameSeq < len(g.nodes) {
		g.nameSeq = len(g.nodes)
	}
	return g
}
