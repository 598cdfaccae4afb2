package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// envelopeKey holds the sealed attempt inside the envelope's Data.
const envelopeKey = "__encrypted__"

// ErrNotEncrypted is returned when a stored attempt carries no encrypted envelope.
var ErrNotEncrypted = errors.New("attempt is missing encrypted data envelope")

type encryptionMiddleware struct {
	next   ports.AttemptStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals attempts with AES-GCM.
// The stored envelope keeps only bookkeeping fields (registration, SCO, timestamps);
// learner identity and every data model value live in the ciphertext.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.AttemptStore) ports.AttemptStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, registrationID string, attempt *domain.Attempt) error {
	plainText, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt attempt: %w", err)
	}

	envelope := &domain.Attempt{
		RegistrationID: attempt.RegistrationID,
		ScoID:          attempt.ScoID,
		Commits:        attempt.Commits,
		StartedAt:      attempt.StartedAt,
		UpdatedAt:      attempt.UpdatedAt,
		TerminatedAt:   attempt.TerminatedAt,
		Data: domain.Snapshot{
			envelopeKey: base64.StdEncoding.EncodeToString(ciphertext),
		},
	}
	return m.next.Save(ctx, registrationID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, registrationID string) (*domain.Attempt, error) {
	envelope, err := m.next.Load(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	encoded, ok := envelope.Data[envelopeKey]
	if !ok {
		// Fail closed: plain attempts are not silently accepted once encryption is on.
		return nil, ErrNotEncrypted
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt attempt: %w", err)
	}

	var attempt domain.Attempt
	if err := json.Unmarshal(plainText, &attempt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted attempt: %w", err)
	}
	return &attempt, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, registrationID string) error {
	return m.next.Delete(ctx, registrationID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
