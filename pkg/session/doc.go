/*
Package session implements editor sessions over stored agent definitions.

A session loads an agent's definition into an editable graph, applies batches of
edit commands atomically, supports undo, and commits the result back to the
definition store as a single write. Nothing is visible outside a session until it
is saved. Saves of the same agent are serialized with per-agent locks, and across
replicas with an optional distributed locker.
*/
package session
