package repository

import (
	"context"

	"rocr/backend/internal/session/domain"
)

// Repository defines persistence for sessions. Lookups by token are exact match.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// FindByToken returns the session holding refreshToken, or nil if none.
	FindByToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	DeleteByToken(ctx context.Context, refreshToken string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
}
