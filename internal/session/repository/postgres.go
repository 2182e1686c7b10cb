package repository

import (
	"context"
	"database/sql"
	"errors"

	"rocr/backend/internal/security"
	"rocr/backend/internal/session/domain"
)

// PostgresRepository stores sessions keyed by the SHA-256 digest of their refresh token.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions
		(id, user_id, refresh_token_hash, user_agent, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, security.HashRefreshToken(s.RefreshToken),
		sql.NullString{String: s.UserAgent, Valid: s.UserAgent != ""},
		sql.NullString{String: s.IPAddress, Valid: s.IPAddress != ""},
		s.ExpiresAt, s.CreatedAt,
	)
	return err
}

// FindByToken returns the session for refreshToken, or nil if not found.
// It returns an error only for database failures, not for missing rows.
// The returned session carries refreshToken as given.
func (r *PostgresRepository) FindByToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	var (
		s         domain.Session
		userAgent sql.NullString
		ip        sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, user_agent, ip_address, expires_at, created_at
		FROM sessions WHERE refresh_token_hash = $1`, security.HashRefreshToken(refreshToken),
	).Scan(&s.ID, &s.UserID, &userAgent, &ip, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.RefreshToken = refreshToken
	s.UserAgent = userAgent.String
	s.IPAddress = ip.String
	return &s, nil
}

// DeleteByToken removes the session holding refreshToken. Deleting a missing session is not an error.
func (r *PostgresRepository) DeleteByToken(ctx context.Context, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token_hash = $1`, security.HashRefreshToken(refreshToken))
	return err
}

// DeleteAllForUser removes every session of userID.
func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// Delete removes the session with the given id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
