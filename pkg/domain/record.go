package domain

import "time"

// Record is the unit the definition owner persists for an agent.
type Record struct {
	AgentID    string     `json:"agent_id" yaml:"agent_id"`
	Definition Definition `json:"definition" yaml:"definition"`
	ModifiedAt time.Time  `json:"modified_at" yaml:"modified_at"`
}
