package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbiter/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore implementation
// adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		result := Result{
			RunID:      runID,
			Game:       "contract",
			Players:    []string{"ana", "bob"},
			Scores:     map[string]float64{"ana": 2, "bob": 0.5},
			States:     7,
			StartedAt:  started,
			FinishedAt: started.Add(time.Minute),
		}

		require.NoError(t, store.Save(ctx, result), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, result.Game, loaded.Game)
		assert.Equal(t, result.Players, loaded.Players)
		assert.Equal(t, result.Scores, loaded.Scores)
		assert.Equal(t, result.States, loaded.States)
		assert.True(t, result.StartedAt.Equal(loaded.StartedAt))
		assert.True(t, result.FinishedAt.Equal(loaded.FinishedAt))
	})

	t.Run("Loaded result is a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		loaded.Scores["ana"] = 100

		again, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, 2.0, again.Scores["ana"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, Result{RunID: id1, Scores: map[string]float64{}}))
		require.NoError(t, store.Save(ctx, Result{RunID: id2, Scores: map[string]float64{}}))

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})

	t.Run("Save without run id", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, Result{}))
	})
}

// RunCredentialStoreContract verifies a CredentialStore that knows the login
// "ana" with password "secret".
func RunCredentialStoreContract(t *testing.T, store CredentialStore) {
	ctx := context.Background()

	ok, err := store.Verify(ctx, "ana", "secret")
	require.NoError(t, err)
	assert.True(t, ok, "valid credentials")

	ok, err = store.Verify(ctx, "ana", "wrong")
	require.NoError(t, err)
	assert.False(t, ok, "wrong password")

	ok, err = store.Verify(ctx, "nobody", "secret")
	require.NoError(t, err)
	assert.False(t, ok, "unknown login")

	ok, err = store.Verify(ctx, "ana", "")
	require.NoError(t, err)
	assert.False(t, ok, "empty password")
}
