package sqlstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/projreg/internal/repository"
)

// APIKeyRepository maps bearer tokens to principals. Only token hashes are
// stored.
type APIKeyRepository struct {
	store *Store
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(store *Store) *APIKeyRepository {
	return &APIKeyRepository{store: store}
}

// Add registers token for principal.
func (r *APIKeyRepository) Add(ctx context.Context, token, principal, description string) error {
	_, err := r.store.db.ExecContext(ctx, r.store.rebind(`
		INSERT INTO api_keys (key_hash, principal, description, created_at)
		VALUES (?, ?, ?, ?)
	`), HashToken(token), principal, description, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// ResolvePrincipal returns the principal registered for token.
func (r *APIKeyRepository) ResolvePrincipal(ctx context.Context, token string) (string, error) {
	var principal string
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(`
		SELECT principal FROM api_keys WHERE key_hash = ?
	`), HashToken(token)).Scan(&principal)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	return principal, nil
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
