package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voicedesk/speechadmin/internal/models"
)

var ErrInvalidAPIKey = errors.New("invalid API key")

// APIKeyStore persists hashed API keys. Plaintext keys are shown once at
// creation and never stored.
type APIKeyStore struct {
	db *pgxpool.Pool
}

func NewAPIKeyStore(db *pgxpool.Pool) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create mints a new key for a user and returns the plaintext alongside the
// stored record.
func (s *APIKeyStore) Create(ctx context.Context, userID *uuid.UUID, name string, expiresAt *time.Time) (string, *models.APIKey, error) {
	plaintext := GenerateAPIKey()

	var k models.APIKey
	err := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (user_id, key_hash, name, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, key_hash, name, expires_at, last_used_at, created_at`,
		userID, HashAPIKey(plaintext), name, expiresAt,
	).Scan(&k.ID, &k.UserID, &k.KeyHash, &k.Name, &k.ExpiresAt, &k.LastUsedAt, &k.CreatedAt)
	if err != nil {
		return "", nil, fmt.Errorf("insert api key: %w", err)
	}
	return plaintext, &k, nil
}

// Lookup resolves a plaintext key via its hash and rejects expired keys.
func (s *APIKeyStore) Lookup(ctx context.Context, plaintext string) (*models.APIKey, error) {
	hash := HashAPIKey(plaintext)

	var k models.APIKey
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, key_hash, name, expires_at, last_used_at, created_at
		 FROM api_keys WHERE key_hash = $1`,
		hash,
	).Scan(&k.ID, &k.UserID, &k.KeyHash, &k.Name, &k.ExpiresAt, &k.LastUsedAt, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}

	if k.ExpiresAt != nil && k.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidAPIKey
	}

	// Record usage without holding up the request.
	go func(id uuid.UUID) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, err := s.db.Exec(ctx, "UPDATE api_keys SET last_used_at = now() WHERE id = $1", id); err != nil {
			slog.Warn("update api key last_used_at", "error", err)
		}
	}(k.ID)

	return &k, nil
}

func HashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// GenerateAPIKey returns a fresh plaintext key with a recognizable prefix.
func GenerateAPIKey() string {
	return "sa_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
