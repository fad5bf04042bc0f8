package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrAuthSessionInvalid is returned when a session token hash is unknown,
// expired or revoked.
var ErrAuthSessionInvalid = fmt.Errorf("auth session %w", ErrNotFound)

// AuthSessionRepo persists/validates login sessions (single 'token_hash' column).
type AuthSessionRepo struct {
	DB  *sql.DB
	Now Clock
}

func NewAuthSessionRepo(db *sql.DB) *AuthSessionRepo { return &AuthSessionRepo{DB: db} }

// Store inserts a session token hash row.
func (r *AuthSessionRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO auth_sessions (user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)",
		userID, tokenHash, exp.UTC().Truncate(time.Second), stamp(r.Now))
	return err
}

// Validate returns userID if a non-revoked, non-expired session exists.
func (r *AuthSessionRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM auth_sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrAuthSessionInvalid
		}
		return 0, err
	}
	if revokedAt.Valid {
		return 0, ErrAuthSessionInvalid
	}
	if !stamp(r.Now).Before(expiresAt) {
		return 0, ErrAuthSessionInvalid
	}
	return userID, nil
}

// RevokeByHash marks a session as revoked.
func (r *AuthSessionRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE auth_sessions SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		stamp(r.Now), tokenHash)
	return err
}

// PurgeExpired deletes sessions that expired or were revoked before cutoff.
func (r *AuthSessionRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoff = cutoff.UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM auth_sessions WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)",
		cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
