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

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/ports"
)

// EnvelopeComponentID names the single component of an encrypted recipe.
const EnvelopeComponentID = "__encrypted__"

const (
	envelopeDefinition = domain.OperatorDefinitionPrefix + "envelope"
	ciphertextKey      = "ciphertext"
)

// ErrMissingEnvelope is returned when a stored recipe carries no encrypted payload.
var ErrMissingEnvelope = errors.New("recipe is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are older keys tried when decryption with ActiveKey fails.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.RecipeStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that stores recipes sealed with AES-GCM.
// The stored recipe keeps its UID and version; its components are replaced by one envelope.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.RecipeStore) ports.RecipeStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, pipelineID string, recipe *domain.Recipe) error {
	plainText, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt recipe: %w", err)
	}

	envelope := &domain.Recipe{
		UID:     recipe.UID,
		Version: recipe.Version,
		Components: []domain.RecipeComponent{{
			ID:             EnvelopeComponentID,
			DefinitionName: envelopeDefinition,
			Configuration: map[string]any{
				ciphertextKey: base64.StdEncoding.EncodeToString(ciphertext),
			},
		}},
	}
	return m.next.Save(ctx, pipelineID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, pipelineID string) (*domain.Recipe, error) {
	envelope, err := m.next.Load(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	if len(envelope.Components) != 1 || envelope.Components[0].ID != EnvelopeComponentID {
		return nil, ErrMissingEnvelope
	}
	encoded, ok := envelope.Components[0].Configuration[ciphertextKey].(string)
	if !ok {
		return nil, ErrMissingEnvelope
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt recipe: %w", err)
	}

	var recipe domain.Recipe
	if err := json.Unmarshal(plainText, &recipe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted recipe: %w", err)
	}
	return &recipe, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, pipelineID string) error {
	return m.next.Delete(ctx, pipelineID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
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
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
