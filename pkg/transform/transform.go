// Package transform converts between the persisted domain.Definition and the
// editable graph.Graph.
//
// ToGraph is lenient: a single corrupt reference must not prevent an author from
// opening and fixing a flow, so malformed input is repaired and every repair is
// listed in the returned Report. ToDefinition is strict: it is a pure projection of
// a graph whose invariants the edit operations already guarantee.
package transform

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/graph"
)

// IssueKind classifies a repair applied while loading a definition.
type IssueKind string

const (
	IssueBlankName     IssueKind = "blank_name"
	IssueDuplicateName IssueKind = "duplicate_name"
	IssueDanglingEdge  IssueKind = "dangling_edge"
	IssueUnknownStart  IssueKind = "unknown_start"
	IssueTrimmedName   IssueKind = "trimmed_name"
)

// Issue describes one repair.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	State  string    `json:"state,omitempty"`
	Detail string    `json:"detail"`
}

func (i Issue) String() string {
	if i.State == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
	}
	return fmt.Sprintf("%s (%s): %s", i.Kind, i.State, i.Detail)
}

// Report lists the repairs applied by ToGraph. A clean load has no issues.
type Report struct {
	Issues []Issue `json:"issues,omitempty"`
}

// Clean reports whether the definition loaded without repairs.
func (r *Report) Clean() bool {
	return r == nil || len(r.Issues) == 0
}

func (r *Report) add(kind IssueKind, state, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, State: state, Detail: fmt.Sprintf(format, args...)})
}

// ToGraph builds an editable graph from a definition.
// Nodes follow the order of def.States and edges follow each state's edge list.
// A nil or empty definition yields the single default starting node.
func ToGraph(def *domain.Definition, opts ...graph.Option) (*graph.Graph, *Report) {
	report := &Report{}
	b := graph.NewBuilder(opts...)
	if def == nil || len(def.States) == 0 {
		return b.Build(), report
	}

	// Every well-formed name is reserved up front, so repairs never take a name a
	// later state legitimately holds.
	for _, s := range def.States {
		if name := strings.TrimSpace(s.Name); name != "" {
			b.Reserve(name)
		}
	}

	// First pass: nodes. ids[i] is the node built for def.States[i].
	ids := make([]graph.NodeID, len(def.States))
	for i, s := range def.States {
		name := strings.TrimSpace(s.Name)
		if name != "" && name != s.Name {
			report.add(IssueTrimmedName, name, "surrounding whitespace removed from %q", s.Name)
		}
		if name == "" {
			name = b.Placeholder()
			report.add(IssueBlankName, name, "state #%d had no name", i+1)
		} else if b.Has(name) {
			// Only the first holder keeps a duplicated name.
			original := name
			name = disambiguate(b, original)
			report.add(IssueDuplicateName, name, "renamed from duplicate %q", original)
		}
		id, err := b.AddNode(name, s.Prompt, s.Tools)
		if err != nil {
			// Names are repaired above, so this is unreachable.
			report.add(IssueBlankName, name, "state #%d skipped: %v", i+1, err)
			continue
		}
		ids[i] = id
	}

	// Second pass: edges. Targets resolve by name against the first holder.
	for i, s := range def.States {
		if ids[i] == 0 {
			continue
		}
		for _, e := range s.Edges {
			targetName := strings.TrimSpace(e.TargetStateName)
			target, ok := b.Lookup(targetName)
			if ok && targetName != e.TargetStateName {
				report.add(IssueTrimmedName, s.Name, "transition target %q trimmed to %q", e.TargetStateName, targetName)
			}
			if !ok {
				report.add(IssueDanglingEdge, s.Name, "dropped transition to unknown state %q", e.TargetStateName)
				continue
			}
			if _, err := b.AddEdge(ids[i], target, e.Description, e.SpeakDuringTransition); err != nil {
				report.add(IssueDanglingEdge, s.Name, "dropped transition to %q: %v", e.TargetStateName, err)
			}
		}
	}

	if def.StartingState != "" {
		startName := strings.TrimSpace(def.StartingState)
		if start, ok := b.Lookup(startName); ok {
			_ = b.SetStart(start)
			if startName != def.StartingState {
				report.add(IssueTrimmedName, startName, "starting state %q trimmed", def.StartingState)
			}
		} else {
			report.add(IssueUnknownStart, def.StartingState, "starting state does not exist, using the first state")
		}
	}

	return b.Build(), report
}

func disambiguate(b *graph.Builder, name string) string {
	for k := 2; ; k++ {
		candidate := fmt.Sprintf("%s_%d", name, k)
		if !b.Taken(candidate) {
			return candidate
		}
	}
}

// ToDefinition projects a graph onto the canonical definition.
// Every node becomes a state in document order, every edge lands in the edge list of
// its source, and the graph's starting node becomes StartingState.
func ToDefinition(g *graph.Graph) (*domain.Definition, error) {
	if g == nil {
		return nil, fmt.Errorf("to definition: %w: nil graph", domain.ErrCorruptGraph)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("to definition: %w", err)
	}

	nodes := g.Nodes()
	index := make(map[graph.NodeID]int, len(nodes))
	names := make(map[graph.NodeID]string, len(nodes))

	def := &domain.Definition{
		States:        make([]domain.State, len(nodes)),
		StartingState: g.Start().Name,
	}
	for i, n := range nodes {
		index[n.ID] = i
		names[n.ID] = n.Name
		def.States[i] = domain.State{
			Name:   n.Name,
			Prompt: n.Prompt,
			Tools:  n.Tools,
			Edges:  []domain.Edge{},
		}
	}

	for _, e := range g.Edges() {
		i := index[e.Source]
		def.States[i].Edges = append(def.States[i].Edges, domain.Edge{
			TargetStateName:       names[e.Target],
			Description:           e.Description,
			SpeakDuringTransition: e.SpeakDuringTransition,
		})
	}

	return def, nil
}
