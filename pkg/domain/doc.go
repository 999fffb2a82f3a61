/*
Package domain contains the core data model shared by every part of Switchboard.

It defines the canonical State-Machine Definition exchanged with the owner of an
agent record, the persisted Record that wraps it, and the sentinel errors used by
the editor. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Definition: named states, each with its ordered outgoing edges, plus the starting state.
  - State: a conversation node carrying an opaque prompt and tool list.
  - Edge: a directed transition to another state, annotated with a condition description.
  - Record: a Definition together with the agent it belongs to and its modification time.
*/
package domain
