package memrepo

import (
	"context"
	"sync"

	"rocr/backend/internal/security"
	"rocr/backend/internal/session/domain"
)

// Sessions is an in-memory session repository keyed by refresh token digest.
type Sessions struct {
	mu      sync.Mutex
	byToken map[string]domain.Session

	// Err, when set, is returned by every method.
	Err error
}

// NewSessions returns an empty Sessions repository.
func NewSessions() *Sessions {
	return &Sessions{byToken: make(map[string]domain.Session)}
}

func (r *Sessions) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.byToken[security.HashRefreshToken(s.RefreshToken)] = *s
	return nil
}

func (r *Sessions) FindByToken(_ context.Context, refreshToken string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.byToken[security.HashRefreshToken(refreshToken)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *Sessions) DeleteByToken(_ context.Context, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	delete(r.byToken, security.HashRefreshToken(refreshToken))
	return nil
}

func (r *Sessions) DeleteAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for k, s := range r.byToken {
		if s.UserID == userID {
			delete(r.byToken, k)
		}
	}
	return nil
}

func (r *Sessions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for k, s := range r.byToken {
		if s.ID == id {
			delete(r.byToken, k)
		}
	}
	return nil
}

// CountForUser returns how many sessions userID holds.
func (r *Sessions) CountForUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.byToken {
		if s.UserID == userID {
			n++
		}
	}
	return n
}
