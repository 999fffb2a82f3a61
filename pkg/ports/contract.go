package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDefinitionStoreContract runs a suite of tests to verify that a DefinitionStore
// implementation adheres to the defined interface contract.
func RunDefinitionStoreContract(t *testing.T, store DefinitionStore) {
	ctx := context.Background()
	agentID := "contract-test-agent-" + time.Now().Format("20060102150405")

	sample := func(id string) *domain.Record {
		return &domain.Record{
			AgentID: id,
			Definition: domain.Definition{
				StartingState: "greeting",
				States: []domain.State{
					{
						Name:   "greeting",
						Prompt: "Say hello.",
						Tools:  []domain.Tool{{"type": "end_call"}},
						Edges: []domain.Edge{
							{TargetStateName: "billing", Description: "asks about billing", SpeakDuringTransition: true},
						},
					},
					{Name: "billing", Prompt: "Explain the invoice.", Edges: []domain.Edge{}},
				},
			},
			ModifiedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		record := sample(agentID)

		err := store.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, agentID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, agentID, loaded.AgentID)
		assert.Equal(t, record.Definition.StartingState, loaded.Definition.StartingState)
		assert.True(t, record.ModifiedAt.Equal(loaded.ModifiedAt), "ModifiedAt should survive persistence")

		require.Len(t, loaded.Definition.States, 2)
		assert.Equal(t, []string{"greeting", "billing"}, loaded.Definition.Names(), "document order should be preserved")

		greeting := loaded.Definition.States[0]
		assert.Equal(t, "Say hello.", greeting.Prompt)
		require.Len(t, greeting.Tools, 1)
		// Tools are opaque; only check that the payload survived.
		assert.Equal(t, "end_call", greeting.Tools[0]["type"])
		require.Len(t, greeting.Edges, 1)
		assert.Equal(t, record.Definition.States[0].Edges[0], greeting.Edges[0])
		assert.Empty(t, loaded.Definition.States[1].Edges)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		record := sample(agentID)
		record.Definition.States = record.Definition.States[1:]
		record.Definition.StartingState = "billing"
		require.NoError(t, store.Save(ctx, record))

		loaded, err := store.Load(ctx, agentID)
		require.NoError(t, err)
		assert.Equal(t, []string{"billing"}, loaded.Definition.Names())
	})

	t.Run("Load Isolated From Caller", func(t *testing.T) {
		record := sample(agentID)
		require.NoError(t, store.Save(ctx, record))
		record.Definition.States[0].Name = "mutated"

		loaded, err := store.Load(ctx, agentID)
		require.NoError(t, err)
		assert.Equal(t, "greeting", loaded.Definition.States[0].Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+agentID)
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sample(agentID)))

		err := store.Delete(ctx, agentID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, agentID)
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound, "Load after Delete should return ErrDefinitionNotFound")

		assert.NoError(t, store.Delete(ctx, agentID), "Delete of a missing record should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := agentID + "-1"
		id2 := agentID + "-2"
		require.NoError(t, store.Save(ctx, sample(id1)))
		require.NoError(t, store.Save(ctx, sample(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		agents, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, agents, id1)
		assert.Contains(t, agents, id2)
	})
}
