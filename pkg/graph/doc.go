/*
Package graph implements the editable conversation graph.

Nodes are conversation states and edges are transitions between them. The graph is
the single mutable source of truth while an editor session is open; the canonical
domain.Definition is only a projection computed at save time (see package transform).

# Identity

Every node has an immutable NodeID that is never reused, separate from its display
name. Edges reference NodeIDs, so renaming a state never touches its transitions.
Every edge has its own EdgeID, which lets duplicate transitions between the same pair
of states coexist and be removed individually.

# Invariants

After every edit operation:

  - State names are non-blank and unique.
  - Every edge references two live nodes.
  - The graph holds at least one node and exactly one of them is the starting state.

Edit operations validate their arguments before mutating anything, so a rejected
operation leaves the graph untouched.
*/
package graph
