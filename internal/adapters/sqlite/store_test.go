package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/scorm/internal/adapters/sqlite"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.AttemptStore = (*sqlite.Store)(nil)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attempts.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, _ := openStore(t)
	ports.RunAttemptStoreContract(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	store, path := openStore(t)
	ctx := context.Background()

	attempt := domain.NewAttempt("reg-1", "learner-1", "sco-1")
	attempt.Data["cmi.suspend_data"] = "state=1"
	require.NoError(t, store.Save(ctx, "reg-1", attempt))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "reg-1")
	require.NoError(t, err)
	assert.Equal(t, "state=1", loaded.Data["cmi.suspend_data"])
	assert.NoError(t, reopened.Ping(ctx))
}

func TestSQLiteStore_DeleteCascadesValues(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	attempt := domain.NewAttempt("reg-1", "learner-1", "sco-1")
	attempt.Data["cmi.location"] = "p1"
	require.NoError(t, store.Save(ctx, "reg-1", attempt))
	require.NoError(t, store.Delete(ctx, "reg-1"))

	require.NoError(t, store.Save(ctx, "reg-1", domain.NewAttempt("reg-1", "learner-1", "sco-1")))
	loaded, err := store.Load(ctx, "reg-1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Data)
}
