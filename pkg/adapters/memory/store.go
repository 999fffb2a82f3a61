package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Store implements ports.DefinitionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Record
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Record),
	}
}

// NewFromDefinitions creates a store seeded with one record per agent.
// This improves DX for tests and demos.
func NewFromDefinitions(defs map[string]*domain.Definition) (*Store, error) {
	s := NewStore()
	now := time.Now().UTC()
	for agentID, def := range defs {
		if agentID == "" {
			return nil, fmt.Errorf("definition missing agent ID")
		}
		if def == nil {
			def = domain.DefaultDefinition()
		}
		s.data[agentID] = domain.Record{
			AgentID:    agentID,
			Definition: *def.Clone(),
			ModifiedAt: now,
		}
	}
	return s, nil
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, record *domain.Record) error {
	if record == nil || record.AgentID == "" {
		return fmt.Errorf("record missing agent ID")
	}
	// Deep copy to ensure isolation, similar to serialization
	copied := *record
	copied.Definition = *record.Definition.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.AgentID] = copied
	return nil
}

// Load retrieves the record from memory.
func (s *Store) Load(ctx context.Context, agentID string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[agentID]
	if !ok {
		return nil, domain.ErrDefinitionNotFound
	}

	// Copy on read so caller can't mutate store state directly by pointer
	record.Definition = *record.Definition.Clone()
	return &record, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, agentID)
	return nil
}

// List returns stored agent IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]string, 0, len(s.data))
	for id := range s.data {
		agents = append(agents, id)
	}
	sort.Strings(agents) // Deterministic order
	return agents, nil
}
