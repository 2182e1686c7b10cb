// Package memrepo provides in-memory user and session repositories for tests and local runs.
package memrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	"rocr/backend/internal/db"
	"rocr/backend/internal/user/domain"
)

// Users is an in-memory user repository. Stored values are copies so callers
// cannot mutate repository state without calling Update.
type Users struct {
	mu   sync.Mutex
	byID map[string]domain.User

	// Err, when set, is returned by every method.
	Err error
}

// NewUsers returns an empty Users repository.
func NewUsers() *Users {
	return &Users{byID: make(map[string]domain.User)}
}

func (r *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *Users) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Create fails with a unique violation when the email is taken, like the users_email_key index.
func (r *Users) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if err := r.checkEmail(u); err != nil {
		return err
	}
	r.byID[u.ID] = *u
	return nil
}

func (r *Users) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.byID[u.ID]; !ok {
		return nil
	}
	if err := r.checkEmail(u); err != nil {
		return err
	}
	r.byID[u.ID] = *u
	return nil
}

func (r *Users) checkEmail(u *domain.User) error {
	for id, other := range r.byID {
		if id != u.ID && other.Email == u.Email {
			return &pgconn.PgError{Code: db.UniqueViolation, ConstraintName: "users_email_key"}
		}
	}
	return nil
}
