package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
)

// MockStore is a minimal DefinitionStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.Record
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]domain.Record),
	}
}

func (m *MockStore) Save(ctx context.Context, record *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Deep copy to simulate serialization
	copied := *record
	copied.Definition = *record.Definition.Clone()
	m.data[record.AgentID] = copied
	return nil
}

func (m *MockStore) Load(ctx context.Context, agentID string) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.data[agentID]
	if !ok {
		return nil, domain.ErrDefinitionNotFound
	}
	record.Definition = *record.Definition.Clone()
	return &record, nil
}

func (m *MockStore) Delete(ctx context.Context, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, agentID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestDefinitionStore_Contract(t *testing.T) {
	ports.RunDefinitionStoreContract(t, NewMockStore())
}
