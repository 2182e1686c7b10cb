package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rocr/backend/internal/audit"
	auditdomain "rocr/backend/internal/audit/domain"
	"rocr/backend/internal/security"
	sessiondomain "rocr/backend/internal/session/domain"
	userdomain "rocr/backend/internal/user/domain"
)

// Sentinel errors for auth service; handler maps them to HTTP codes.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserInvalid        = errors.New("user not found or inactive")
	ErrInvalidPassword    = errors.New("current password is incorrect")
)

// LoginResult is returned by Login. User never carries a usable password hash outside the server
// because its JSON encoding omits it.
type LoginResult struct {
	User         *userdomain.User `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Update(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
	FindByToken(ctx context.Context, refreshToken string) (*sessiondomain.Session, error)
	DeleteByToken(ctx context.Context, refreshToken string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
}

// AuthService implements password login, access token refresh, logout and password change.
// Refresh tokens are not rotated: one stays usable until its session is deleted or expires.
type AuthService struct {
	users    UserRepo
	sessions SessionRepo
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	audit    audit.AuditLogger
	now      func() time.Time
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithClock sets the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService returns an AuthService with the given dependencies. auditLogger may be nil.
func NewAuthService(
	users UserRepo,
	sessions SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	auditLogger audit.AuditLogger,
	opts ...Option,
) *AuthService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	s := &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		audit:    auditLogger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates with email and password, persists a session for the refresh token and
// returns both tokens with the user. An inactive account gets no session.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*LoginResult, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.audit.LogEvent(ctx, "", auditdomain.ActionLoginFailure, "session", `{"reason":"unknown_email"}`)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.audit.LogEvent(ctx, user.ID, auditdomain.ActionLoginFailure, "session", `{"reason":"bad_password"}`)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.audit.LogEvent(ctx, user.ID, auditdomain.ActionLoginFailure, "session", `{"reason":"inactive"}`)
		return nil, ErrAccountInactive
	}

	sub := subjectOf(user)
	accessToken, _, err := s.tokens.Issue(sub, security.KindAccess)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.tokens.Issue(sub, security.KindRefresh)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		ExpiresAt:    refreshExp,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.audit.LogEvent(ctx, user.ID, auditdomain.ActionLoginSuccess, "session", "")
	return &LoginResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token must verify,
// be of the refresh kind, have a live session and belong to an active user. A session found
// past its expiry is deleted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.Kind != security.KindRefresh {
		return "", ErrInvalidTokenType
	}
	sess, err := s.sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrSessionNotFound
	}
	if sess.IsExpired(s.now()) {
		if err := s.sessions.Delete(ctx, sess.ID); err != nil {
			return "", err
		}
		return "", ErrSessionExpired
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive {
		return "", ErrUserInvalid
	}
	accessToken, _, err := s.tokens.Issue(subjectOf(user), security.KindAccess)
	if err != nil {
		return "", err
	}
	s.audit.LogEvent(ctx, user.ID, auditdomain.ActionTokenRefresh, "session", "")
	return accessToken, nil
}

// Logout deletes the session holding refreshToken, or every session of userID when refreshToken is empty.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	var err error
	scope := "all"
	if refreshToken != "" {
		scope = "single"
		err = s.sessions.DeleteByToken(ctx, refreshToken)
	} else {
		err = s.sessions.DeleteAllForUser(ctx, userID)
	}
	if err != nil {
		return err
	}
	s.audit.LogEvent(ctx, userID, auditdomain.ActionLogout, "session", `{"scope":"`+scope+`"}`)
	return nil
}

// UpdatePassword checks currentPassword, stores the hash of newPassword and deletes every session
// of the user. Access tokens already issued stay valid until they expire.
func (s *AuthService) UpdatePassword(ctx context.Context, user *userdomain.User, currentPassword, newPassword string) error {
	if err := s.hasher.Compare(user.PasswordHash, []byte(currentPassword)); err != nil {
		return ErrInvalidPassword
	}
	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	updated := *user
	updated.PasswordHash = hash
	updated.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, &updated); err != nil {
		return err
	}
	if err := s.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, user.ID, auditdomain.ActionPasswordChange, "user", "")
	return nil
}

func subjectOf(u *userdomain.User) security.Subject {
	return security.Subject{UserID: u.ID, Email: u.Email, Role: u.Role.String()}
}
