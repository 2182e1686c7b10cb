package repository

import (
	"context"

	"rocr/backend/internal/contact/domain"
)

// Repository defines persistence for contacts.
type Repository interface {
	Create(ctx context.Context, c *domain.Contact) error
	// GetByID returns the contact with its assignee, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	// List returns the page selected by f, newest first, and the total matching f ignoring paging.
	List(ctx context.Context, f domain.Filter) ([]*domain.Contact, int, error)
	// Update writes status, assigned_to_id, notes, replied_at and updated_at.
	Update(ctx context.Context, c *domain.Contact) error
	// Delete removes the contact and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (domain.Stats, error)
}
