/*
Package ports defines the driven ports (interfaces) for the switchboard editor.

These interfaces decouple the editing core from external implementations, allowing
sessions to load and persist definitions through various storage backends and to
coordinate saves across replicas.

# Key Interfaces

  - DefinitionStore: Responsible for loading and persisting an agent's definition Record.
  - DistributedLocker: Provides distributed locking so concurrent saves of one agent serialize.
*/
package ports
