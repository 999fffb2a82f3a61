package loam

import (
	"github.com/aretw0/switchboard/pkg/domain"
)

// DefinitionMetadata is the document body of a stored agent definition.
// It uses "mapstructure" tags so Loam's typed repository can decode it.
type DefinitionMetadata struct {
	AgentID       string         `json:"agent_id" mapstructure:"agent_id"`
	StartingState string         `json:"starting_state" mapstructure:"starting_state"`
	States        []domain.State `json:"states" mapstructure:"states"`

	// ModifiedAt is RFC 3339 text; mapstructure has no time.Time decoding by default.
	ModifiedAt string `json:"modified_at" mapstructure:"modified_at"`
}
