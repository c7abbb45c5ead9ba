package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopyhq/canopy/pkg/domain"
)

// RunStoreContract verifies that a RunStore implementation adheres to the
// interface contract. Adapter test suites call it against their store.
func RunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		rec := &RunRecord{
			RunID:  runID,
			Paused: true,
			Messages: []domain.Message{
				{ID: "m1", Role: domain.RoleUser, Content: "hello"},
				{ID: "m2", Role: domain.RoleAssistant, Content: "hi there"},
			},
		}

		err := store.Save(ctx, runID, rec)
		require.NoError(t, err)

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, runID, loaded.RunID)
		assert.True(t, loaded.Paused)
		require.Len(t, loaded.Messages, 2)
		assert.Equal(t, "hi there", loaded.Messages[1].Content)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, runID, &RunRecord{RunID: runID})
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err)

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should report the run as missing")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, id1, &RunRecord{RunID: id1})
		_ = store.Save(ctx, id2, &RunRecord{RunID: id2})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
