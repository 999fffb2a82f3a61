package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/google/uuid"
)

// PlaceholderPrefix is the prefix of generated state names (N1, N2, ...).
const PlaceholderPrefix = "N"

// NodeID is the immutable internal identifier of a node.
type NodeID int

// EdgeID identifies a single edge.
type EdgeID string

// Position is a rendering hint. It carries no semantic meaning.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a conversation state.
type Node struct {
	ID       NodeID
	Name     string
	Prompt   string
	Tools    []domain.Tool
	Position Position
}

// Edge is a directed transition between two nodes.
type Edge struct {
	ID                    EdgeID
	Source                NodeID
	Target                NodeID
	Description           string
	SpeakDuringTransition bool
}

// Graph is the in-memory editable representation of a state machine.
// It is not safe for concurrent use; a session owns exactly one graph.
type Graph struct {
	nodes []*Node // document order
	edges []*Edge

	start   NodeID
	nextID  NodeID
	nameSeq int

	newEdgeID func() EdgeID
}

// Option configures a Graph.
type Option func(*Graph)

// WithEdgeIDs replaces the edge ID generator (UUIDs by default).
func WithEdgeIDs(gen func() EdgeID) Option {
	return func(g *Graph) {
		g.newEdgeID = gen
	}
}

func newGraph(opts ...Option) *Graph {
	g := &Graph{
		nextID:    1,
		newEdgeID: func() EdgeID { return EdgeID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// New creates a graph holding the single default starting state.
func New(opts ...Option) *Graph {
	g := newGraph(opts...)
	n := g.appendNode(g.nextName(), "", nil)
	g.start = n.ID
	return g
}

// GridPosition returns the default layout position of the i-th node.
func GridPosition(i int) Position {
	const cols = 4
	return Position{
		X: float64(i%cols) * 280,
		Y: float64(i/cols) * 180,
	}
}

func (g *Graph) appendNode(name, prompt string, tools []domain.Tool) *Node {
	n := &Node{
		ID:       g.nextID,
		Name:     name,
		Prompt:   prompt,
		Tools:    domain.CloneTools(tools),
		Position: GridPosition(len(g.nodes)),
	}
	g.nextID++
	g.nodes = append(g.nodes, n)
	return n
}

func (g *Graph) appendEdge(source, target NodeID, description string, speak bool) *Edge {
	e := &Edge{
		ID:                    g.newEdgeID(),
		Source:                source,
		Target:                target,
		Description:           description,
		SpeakDuringTransition: speak,
	}
	g.edges = append(g.edges, e)
	return e
}

// nextName returns the next placeholder name not currently in use.
func (g *Graph) nextName() string {
	for {
		g.nameSeq++
		name := fmt.Sprintf("%s%d", PlaceholderPrefix, g.nameSeq)
		if g.lookup(name) == nil {
			return name
		}
	}
}

func (g *Graph) lookup(name string) *Node {
	for _, n := range g.nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

func (g *Graph) lookupID(id NodeID) *Node {
	for _, n := range g.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (g *Graph) lookupEdge(id EdgeID) (int, *Edge) {
	for i, e := range g.edges {
		if e.ID == id {
			return i, e
		}
	}
	return -1, nil
}

func (g *Graph) mustLookup(op, name string) (*Node, error) {
	n := g.lookup(name)
	if n == nil {
		return nil, fmt.Errorf("%s %q: %w", op, name, domain.ErrStateNotFound)
	}
	return n, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrBlankName
	}
	return name, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns a copy of every node in document order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.copy())
	}
	return out
}

// Edges returns a copy of every edge in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, *e)
	}
	return out
}

// Node returns the node with the given name.
func (g *Graph) Node(name string) (Node, bool) {
	n := g.lookup(name)
	if n == nil {
		return Node{}, false
	}
	return n.copy(), true
}

// NodeByID returns the node with the given internal ID.
func (g *Graph) NodeByID(id NodeID) (Node, bool) {
	n := g.lookupID(id)
	if n == nil {
		return Node{}, false
	}
	return n.copy(), true
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id EdgeID) (Edge, bool) {
	_, e := g.lookupEdge(id)
	if e == nil {
		return Edge{}, false
	}
	return *e, true
}

// Start returns the starting node.
func (g *Graph) Start() Node {
	n := g.lookupID(g.start)
	if n == nil {
		return Node{}
	}
	return n.copy()
}

// EdgesFrom returns the edges whose source is the named node, in insertion order.
func (g *Graph) EdgesFrom(name string) []Edge {
	n := g.lookup(name)
	if n == nil {
		return nil
	}
	var out []Edge
	for _, e := range g.edges {
		if e.Source == n.ID {
			out = append(out, *e)
		}
	}
	return out
}

// EdgesTo returns the edges whose target is the named node, in insertion order.
func (g *Graph) EdgesTo(name string) []Edge {
	n := g.lookup(name)
	if n == nil {
		return nil
	}
	var out []Edge
	for _, e := range g.edges {
		if e.Target == n.ID {
			out = append(out, *e)
		}
	}
	return out
}

// Names returns the node names in document order.
func (g *Graph) Names() []string {
	out := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.Name)
	}
	return out
}

// Clone returns an independent deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:     make([]*Node, len(g.nodes)),
		edges:     make([]*Edge, len(g.edges)),
		start:     g.start,
		nextID:    g.nextID,
		nameSeq:   g.nameSeq,
		newEdgeID: g.newEdgeID,
	}
	for i, n := range g.nodes {
		cp := n.copy()
		c.nodes[i] = &cp
	}
	for i, e := range g.edges {
		cp := *e
		c.edges[i] = &cp
	}
	return c
}

func (n *Node) copy() Node {
	out := *n
	out.Tools = domain.CloneTools(n.Tools)
	return out
}
