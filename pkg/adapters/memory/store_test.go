package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/scorm/pkg/adapters/memory"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunAttemptStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	attempt := domain.NewAttempt("reg-1", "learner-1", "sco-1")
	attempt.Data["cmi.location"] = "p1"
	require.NoError(t, store.Save(ctx, "reg-1", attempt))

	attempt.Data["cmi.location"] = "mutated"
	loaded, err := store.Load(ctx, "reg-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", loaded.Data["cmi.location"])

	loaded.Data["cmi.location"] = "mutated again"
	again, _ := store.Load(ctx, "reg-1")
	assert.Equal(t, "p1", again.Data["cmi.location"])
}
