package loam

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/switchboard/pkg/domain"
)

const docExt = ".json"

// Store implements ports.DefinitionStore on a Loam repository.
// Each agent is a single JSON document named after its ID.
type Store struct {
	Repo *loam.TypedRepository[DefinitionMetadata]
	root string
}

// Open initializes (or reuses) a Loam repository in dir and returns a store over it.
func Open(dir string) (*Store, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}

	// No versioning: the directory is a plain document store owned by the backend.
	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	return New(loam.NewTypedRepository[DefinitionMetadata](repo), absPath), nil
}

// New creates a store over an existing typed repository rooted at root.
func New(repo *loam.TypedRepository[DefinitionMetadata], root string) *Store {
	return &Store{
		Repo: repo,
		root: root,
	}
}

func validAgentID(agentID string) error {
	if agentID == "" || strings.ContainsAny(agentID, `/\`) || strings.Contains(agentID, "..") {
		return fmt.Errorf("invalid agent ID %q", agentID)
	}
	return nil
}

func (s *Store) exists(agentID string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.root, agentID+docExt))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Load retrieves the record for an agent.
func (s *Store) Load(ctx context.Context, agentID string) (*domain.Record, error) {
	if err := validAgentID(agentID); err != nil {
		return nil, err
	}
	ok, err := s.exists(agentID)
	if err != nil {
		return nil, fmt.Errorf("loam stat failed for %s: %w", agentID, err)
	}
	if !ok {
		return nil, domain.ErrDefinitionNotFound
	}

	doc, err := s.Repo.Get(ctx, agentID+docExt)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", agentID, err)
	}
	return toRecord(agentID, doc.Data)
}

func toRecord(agentID string, meta DefinitionMetadata) (*domain.Record, error) {
	record := &domain.Record{
		AgentID: agentID,
		Definition: domain.Definition{
			States:        meta.States,
			StartingState: meta.StartingState,
		},
	}
	// Documents written by hand may omit edge lists.
	for i := range record.Definition.States {
		if record.Definition.States[i].Edges == nil {
			record.Definition.States[i].Edges = []domain.Edge{}
		}
	}
	if meta.ModifiedAt != "" {
		ts, err := time.Parse(time.RFC3339Nano, meta.ModifiedAt)
		if err != nil {
			return nil, fmt.Errorf("definition %s: modified_at: %w", agentID, err)
		}
		record.ModifiedAt = ts
	}
	return record, nil
}

// Save writes the record as the agent's document, replacing any previous one.
func (s *Store) Save(ctx context.Context, record *domain.Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if err := validAgentID(record.AgentID); err != nil {
		return err
	}

	def := record.Definition.Clone()
	meta := DefinitionMetadata{
		AgentID:       record.AgentID,
		StartingState: def.StartingState,
		States:        def.States,
	}
	if !record.ModifiedAt.IsZero() {
		meta.ModifiedAt = record.ModifiedAt.UTC().Format(time.RFC3339Nano)
	}

	err := s.Repo.Save(ctx, &loam.DocumentModel[DefinitionMetadata]{
		ID:   record.AgentID + docExt,
		Data: meta,
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", record.AgentID, err)
	}
	return nil
}

// Delete removes the agent's document. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, agentID string) error {
	if err := validAgentID(agentID); err != nil {
		return err
	}
	ok, err := s.exists(agentID)
	if err != nil || !ok {
		return err
	}
	if err := s.Repo.Delete(ctx, agentID+docExt); err != nil {
		return fmt.Errorf("loam delete failed for %s: %w", agentID, err)
	}
	return nil
}

// List returns the IDs of all stored agents in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise the document ID
		id := doc.Data.AgentID
		if id == "" {
			id = trimExtension(doc.ID)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}
