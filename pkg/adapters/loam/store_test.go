package loam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/switchboard/internal/testutils"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	ports.RunDefinitionStoreContract(t, store)
}

func TestStore_ReadsHandWrittenDocument(t *testing.T) {
	dir := testutils.SetupTestDir(t)

	// Edge lists omitted; no agent_id in the body.
	content := `{
  "starting_state": "greeting",
  "states": [
    {"name": "greeting", "prompt": "Hello", "edges": [{"target_state_name": "bye", "description": "done"}]},
    {"name": "bye", "prompt": "Goodbye"}
  ]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "support.json"), []byte(content), 0o644))

	store, err := Open(dir)
	require.NoError(t, err)

	ctx := context.Background()
	rec, err := store.Load(ctx, "support")
	require.NoError(t, err)
	assert.Equal(t, "support", rec.AgentID)
	assert.Equal(t, []string{"greeting", "bye"}, rec.Definition.Names())
	assert.Equal(t, "bye", rec.Definition.States[0].Edges[0].TargetStateName)
	assert.NotNil(t, rec.Definition.States[1].Edges)
	assert.True(t, rec.ModifiedAt.IsZero())

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"support"}, ids)
}

func TestStore_RejectsUnsafeAgentIDs(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
		assert.NotErrorIs(t, err, domain.ErrDefinitionNotFound, id)
		assert.Error(t, store.Save(ctx, &domain.Record{AgentID: id}), id)
	}
}
