package repository

import (
	"context"

	"rocr/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail looks up by the normalized (lowercase) email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns all users ordered by creation time, oldest first.
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// Update overwrites every mutable column, including password_hash and is_active.
	Update(ctx context.Context, u *domain.User) error
}
