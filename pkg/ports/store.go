package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// DefinitionStore is the collaborator that owns the persisted definition of each agent.
// The editor only reads a Record when a session opens and only writes one on save.
type DefinitionStore interface {
	// Load retrieves the record for a given agent.
	// Returns domain.ErrDefinitionNotFound if the agent has no stored definition.
	Load(ctx context.Context, agentID string) (*domain.Record, error)

	// Save persists the record under its AgentID, replacing any previous one.
	Save(ctx context.Context, record *domain.Record) error

	// Delete removes the record for a given agent. Deleting a missing record is not an error.
	Delete(ctx context.Context, agentID string) error

	// List returns the IDs of all agents with a stored definition.
	List(ctx context.Context) ([]string, error)
}
