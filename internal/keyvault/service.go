// Package keyvault stores per-user provider API keys, encrypted with
// the process-wide secretbox key. Plaintext exists only inside the
// request that saves or uses a key; everything at rest and on the wire
// is ciphertext or a display mask.
package keyvault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rotzhost/rotzcoder/internal/models"
	"github.com/rotzhost/rotzcoder/internal/secretbox"
)

var (
	ErrKeyNotFound     = errors.New("no API key stored for provider")
	ErrUnknownProvider = errors.New("unknown provider")
)

// ProviderSet answers whether a provider name is served. The llm
// registry implements it.
type ProviderSet interface {
	Has(name string) bool
}

type recorder interface {
	Event(ctx context.Context, eventType string, userID *uuid.UUID, payload map[string]interface{})
}

type Service struct {
	db        *pgxpool.Pool
	box       *secretbox.Box
	providers ProviderSet
	collector recorder
}

func NewService(db *pgxpool.Pool, box *secretbox.Box, providers ProviderSet) *Service {
	return &Service{db: db, box: box, providers: providers}
}

func (s *Service) WithCollector(r recorder) *Service { s.collector = r; return s }

// Save encrypts and upserts one key per (user, provider). Saving again
// replaces the previous ciphertext.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, provider, plaintext string) (*models.APIKey, error) {
	if !s.providers.Has(provider) {
		return nil, ErrUnknownProvider
	}
	plaintext = strings.TrimSpace(plaintext)
	if err := ValidateKeyFormat(provider, plaintext); err != nil {
		return nil, err
	}

	ciphertext, nonce, err := s.box.Encrypt([]byte(plaintext))
	if err != nil {
		return nil, fmt.Errorf("encrypt api key: %w", err)
	}

	k := &models.APIKey{
		ID:       uuid.New(),
		UserID:   userID,
		Provider: provider,
		Mask:     MaskKey(plaintext),
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (id, user_id, provider, ciphertext, nonce, mask)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, provider) DO UPDATE
		 SET ciphertext = EXCLUDED.ciphertext, nonce = EXCLUDED.nonce,
		     mask = EXCLUDED.mask, updated_at = now()
		 RETURNING id, created_at, updated_at`,
		k.ID, userID, provider, ciphertext, nonce, k.Mask,
	)
	if err := row.Scan(&k.ID, &k.CreatedAt, &k.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert api key: %w", err)
	}

	s.record(ctx, models.EventAPIKeySaved, userID, provider)
	return k, nil
}

// Get decrypts the stored key for one provider. Callers must treat the
// returned plaintext as request-scoped and never persist or log it.
func (s *Service) Get(ctx context.Context, userID uuid.UUID, provider string) (string, error) {
	var ciphertext, nonce []byte
	err := s.db.QueryRow(ctx,
		`SELECT ciphertext, nonce FROM api_keys WHERE user_id = $1 AND provider = $2`,
		userID, provider,
	).Scan(&ciphertext, &nonce)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query api key: %w", err)
	}

	plaintext, err := s.box.Decrypt(ciphertext, nonce)
	if err != nil {
		return "", fmt.Errorf("decrypt api key for %s: %w", provider, err)
	}
	return string(plaintext), nil
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM api_keys WHERE user_id = $1 AND provider = $2`, userID, provider)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrKeyNotFound
	}
	s.record(ctx, models.EventAPIKeyDeleted, userID, provider)
	return nil
}

// List returns masks and metadata only; ciphertext never leaves the
// package.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, provider, mask, created_at, updated_at
		 FROM api_keys WHERE user_id = $1 ORDER BY provider`, userID)
	if err != nil {
		return nil, fmt.Errorf("query api keys: %w", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Provider, &k.Mask, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *Service) record(ctx context.Context, eventType string, userID uuid.UUID, provider string) {
	if s.collector != nil {
		s.collector.Event(ctx, eventType, &userID, map[string]interface{}{"provider": provider})
	}
}
