/*
Package switchboard is the editing core of a voice agent's conversation flow.

A flow is a State-Machine Definition: named states, each with a prompt, opaque tools and
outgoing transitions, plus one starting state. Switchboard loads a definition into an
editable directed graph, applies edit operations that keep the graph consistent after every
step, and writes the result back as a definition only when the editor saves.

# Concept

The definition is the canonical record and belongs to whoever stores the agent (the
"Collaborator", see ports.DefinitionStore). The graph is a working copy with stable node
identities, so a state can be renamed without rewriting its transitions. The transform
package converts between the two; the session package wraps a graph in an editor session
(open, apply, undo, save, discard) that hosts drive over HTTP, MCP or the CLI.

# Key Features

  - Atomic edits: a rejected command, or a rejected batch, leaves the graph unchanged.
  - Lenient loading: malformed definitions are repaired and every repair is reported.
  - Strict saving: the definition written back always satisfies the graph invariants.
  - Pluggable storage: memory, file (Loam) and Redis stores share one contract.

# Usage

	store := memory.NewStore()
	mgr := session.NewManager(store)

	snap, err := mgr.Open(ctx, "support-agent")
	if err != nil {
		log.Fatal(err)
	}

	_, _, err = mgr.Apply(ctx, snap.ID,
		edit.Command{Op: edit.OpAddState, As: "faq"},
		edit.Command{Op: edit.OpRenameState, State: "$faq", NewName: "faq"},
		edit.Command{Op: edit.OpAddTransition, Source: snap.Graph.Start().Name, Target: "faq"},
	)
	if err != nil {
		log.Fatal(err)
	}

	result, err := mgr.Save(ctx, snap.ID)
*/
package switchboard
