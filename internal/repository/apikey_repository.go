package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/activity-booking/internal/model"
)

// APIKeyRepo stores webhook keys by SHA-256 hash; raw keys never reach
// the database.
type APIKeyRepo struct{ db *sql.DB }

func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo { return &APIKeyRepo{db: db} }

func (r *APIKeyRepo) Create(ctx context.Context, k *model.APIKey) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO api_keys (key_hash, user_id, expires_at, created_at) VALUES (?, ?, ?, UTC_TIMESTAMP())",
		k.KeyHash, k.UserID, k.ExpiresAt.UTC())
	if err != nil {
		return mapErr(err, "api key")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	k.ID = uint64(id)
	return nil
}

// GetByHash returns the key with the given hash, expired or not.
func (r *APIKeyRepo) GetByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var k model.APIKey
	err := r.db.QueryRowContext(ctx,
		"SELECT id, key_hash, user_id, expires_at, created_at FROM api_keys WHERE key_hash = ? LIMIT 1", hash).
		Scan(&k.ID, &k.KeyHash, &k.UserID, &k.ExpiresAt, &k.CreatedAt)
	if err != nil {
		return nil, mapErr(err, "api key")
	}
	return &k, nil
}
