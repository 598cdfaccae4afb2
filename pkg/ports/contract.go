package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/scorm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunAttemptStoreContract runs a suite of tests to verify that an AttemptStore implementation
// adheres to the defined interface contract.
func RunAttemptStoreContract(t *testing.T, store AttemptStore) {
	ctx := context.Background()
	regID := "contract-reg-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		attempt := domain.NewAttempt(regID, "learner-1", "sco-1")
		attempt.SessionID = "session-1"
		attempt.Commits = 2
		attempt.Data = domain.Snapshot{
			"cmi.location":        "page-3",
			"cmi.suspend_data":    `{"answers":[1,2,3]}`,
			"cmi.learner_name":    "Doe, Jane",
			"cmi.score.raw":       "087.50",
			"cmi.objectives.0.id": "obj-1",
		}

		require.NoError(t, store.Save(ctx, regID, attempt), "Save should not return error")

		loaded, err := store.Load(ctx, regID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, regID, loaded.RegistrationID)
		assert.Equal(t, "learner-1", loaded.LearnerID)
		assert.Equal(t, "sco-1", loaded.ScoID)
		assert.Equal(t, "session-1", loaded.SessionID)
		assert.Equal(t, 2, loaded.Commits)
		assert.Equal(t, attempt.Data, loaded.Data, "snapshot values must round-trip verbatim")
		assert.WithinDuration(t, attempt.StartedAt, loaded.StartedAt, time.Second)
		assert.Nil(t, loaded.TerminatedAt)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		attempt := domain.NewAttempt(regID, "learner-1", "sco-1")
		attempt.Data = domain.Snapshot{"cmi.location": "page-9"}
		now := time.Now().UTC()
		attempt.TerminatedAt = &now
		require.NoError(t, store.Save(ctx, regID, attempt))

		loaded, err := store.Load(ctx, regID)
		require.NoError(t, err)
		assert.Equal(t, "page-9", loaded.Data["cmi.location"])
		_, stale := loaded.Data["cmi.suspend_data"]
		assert.False(t, stale, "overwrite must replace the whole snapshot")
		require.NotNil(t, loaded.TerminatedAt)
		assert.True(t, loaded.Terminated())
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+regID)
		assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, regID, domain.NewAttempt(regID, "learner-1", "sco-1")))

		require.NoError(t, store.Delete(ctx, regID), "Delete should not return error")

		_, err := store.Load(ctx, regID)
		assert.ErrorIs(t, err, domain.ErrAttemptNotFound, "Load after Delete should return ErrAttemptNotFound")
	})

	t.Run("Delete Non-Existent", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "never-saved-"+regID))
	})

	t.Run("List", func(t *testing.T) {
		id1 := regID + "-1"
		id2 := regID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewAttempt(id1, "learner-1", "sco-1")))
		require.NoError(t, store.Save(ctx, id2, domain.NewAttempt(id2, "learner-2", "sco-1")))
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
