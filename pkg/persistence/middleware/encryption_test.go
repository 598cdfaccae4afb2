package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/scorm/pkg/adapters/memory"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/persistence/middleware"
	"github.com/aretw0/scorm/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleAttempt() *domain.Attempt {
	a := domain.NewAttempt("reg-1", "learner-1", "sco-1")
	a.Data["cmi.learner_name"] = "Doe, Jane"
	a.Data["cmi.suspend_data"] = "secret-progress"
	return a
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunAttemptStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "reg-1", sampleAttempt()))

	stored, err := underlying.Load(ctx, "reg-1")
	require.NoError(t, err)
	assert.NotContains(t, stored.Data, "cmi.suspend_data")
	assert.Contains(t, stored.Data, "__encrypted__")
	assert.Empty(t, stored.LearnerID, "learner identity must not leak into the envelope")
	assert.Equal(t, "sco-1", stored.ScoID)

	loaded, err := secure.Load(ctx, "reg-1")
	require.NoError(t, err)
	assert.Equal(t, "secret-progress", loaded.Data["cmi.suspend_data"])
	assert.Equal(t, "learner-1", loaded.LearnerID)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "reg-1", sampleAttempt()))

	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)
	loaded, err := rotated.Load(ctx, "reg-1")
	require.NoError(t, err)
	assert.Equal(t, "secret-progress", loaded.Data["cmi.suspend_data"])

	newOnly := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})(underlying)
	_, err = newOnly.Load(ctx, "reg-1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainAttempts(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "reg-1", sampleAttempt()))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "reg-1")
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKeyPanics(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}
