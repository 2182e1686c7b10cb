package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"rocr/backend/internal/db"
	"rocr/backend/internal/security"
	"rocr/backend/internal/user/domain"
)

// Sentinel errors for user administration; handler maps them to HTTP codes.
var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrSelfDemotion   = errors.New("cannot demote yourself")
	ErrSelfDeletion   = errors.New("cannot delete yourself")
)

// UserRepo is the user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
}

// SessionRevoker deletes every session of a user.
type SessionRevoker interface {
	DeleteAllForUser(ctx context.Context, userID string) error
}

// CreateInput holds the fields for a new user. Role defaults to employee.
type CreateInput struct {
	Email      string
	Password   string
	Name       string
	Role       domain.Role
	Phone      *string
	HourlyRate *float64
}

// UpdateInput holds a partial update. Nil pointers leave fields untouched. For the
// nullable columns, Set* selects the field and a nil value clears it.
type UpdateInput struct {
	Email         *string
	Name          *string
	Role          *domain.Role
	IsActive      *bool
	SetPhone      bool
	Phone         *string
	SetHourlyRate bool
	HourlyRate    *float64
	SetAvatarURL  bool
	AvatarURL     *string
}

// UserService implements user administration.
type UserService struct {
	users    UserRepo
	sessions SessionRevoker
	hasher   *security.Hasher
	now      func() time.Time
}

// NewUserService returns a UserService.
func NewUserService(users UserRepo, sessions SessionRevoker, hasher *security.Hasher) *UserService {
	return &UserService{users: users, sessions: sessions, hasher: hasher, now: time.Now}
}

// Create adds an active user. An email already in use yields ErrDuplicateEmail.
func (s *UserService) Create(ctx context.Context, in CreateInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}
	hash, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		Phone:        emptyToNil(in.Phone),
		HourlyRate:   in.HourlyRate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

// List returns every user, oldest first.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// Get returns the user with id or ErrNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// Update applies in to the user with id. actorID is the admin making the change;
// admins cannot give themselves a non-admin role.
func (s *UserService) Update(ctx context.Context, actorID, id string, in UpdateInput) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if id == actorID && in.Role != nil && *in.Role != domain.RoleAdmin {
		return nil, ErrSelfDemotion
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		other, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, ErrDuplicateEmail
		}
		u.Email = email
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.SetPhone {
		u.Phone = emptyToNil(in.Phone)
	}
	if in.SetHourlyRate {
		u.HourlyRate = in.HourlyRate
	}
	if in.SetAvatarURL {
		u.AvatarURL = in.AvatarURL
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

// ResetPassword sets a new password for the user with id and deletes all of its sessions.
func (s *UserService) ResetPassword(ctx context.Context, id, newPassword string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	return s.sessions.DeleteAllForUser(ctx, id)
}

// Deactivate marks the user with id inactive and deletes all of its sessions. Rows are never removed.
func (s *UserService) Deactivate(ctx context.Context, actorID, id string) error {
	if id == actorID {
		return ErrSelfDeletion
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = false
	u.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	return s.sessions.DeleteAllForUser(ctx, id)
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
