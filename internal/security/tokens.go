package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is malformed, badly signed, or expired.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenKind distinguishes access tokens from refresh tokens. Both are signed with the same secret.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Subject is the identity carried by a token.
type Subject struct {
	UserID string
	Email  string
	Role   string
}

// Claims holds the JWT claims for both token kinds. Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Kind  TokenKind `json:"type"`
}

// TokenProvider issues and verifies HS256 access and refresh tokens.
// Verification is stateless; revocation is the session store's job.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures a TokenProvider.
type TokenOption func(*TokenProvider)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(p *TokenProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewTokenProvider returns a TokenProvider that signs with secret.
func NewTokenProvider(secret string, accessTTL, refreshTTL time.Duration, opts ...TokenOption) *TokenProvider {
	p := &TokenProvider{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// Issue signs a token of the given kind for sub. The returned expiry has the same
// one-second precision as the exp claim.
func (p *TokenProvider) Issue(sub Subject, kind TokenKind) (token string, expiresAt time.Time, err error) {
	var ttl time.Duration
	switch kind {
	case KindAccess:
		ttl = p.accessTTL
	case KindRefresh:
		ttl = p.refreshTTL
	default:
		return "", time.Time{}, ErrInvalidToken
	}
	now := p.now().UTC().Truncate(time.Second)
	expiresAt = now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: sub.Email,
		Role:  sub.Role,
		Kind:  kind,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks signature, algorithm and expiry and returns the claims.
// A token whose exp equals the current time is already expired.
func (p *TokenProvider) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
