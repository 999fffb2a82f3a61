package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, record *domain.Record) error { return nil }
func (m *MockStore) Load(ctx context.Context, agentID string) (*domain.Record, error) {
	return nil, domain.ErrDefinitionNotFound
}
func (m *MockStore) Delete(ctx context.Context, agentID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)      { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 1000

	// Open and save sessions for many agents
	for i := 0; i < count; i++ {
		snap, err := mgr.Open(ctx, fmt.Sprintf("agent-%d", i))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := mgr.Save(ctx, snap.ID); err != nil {
			t.Fatal(err)
		}
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after save", n)
	}
	if n := len(mgr.sessions); n != 0 {
		t.Errorf("Memory Leak Detected: %d sessions remaining in memory after save", n)
	}
}
