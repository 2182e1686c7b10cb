package middleware

import (
	"context"
	"net/http"
	"strings"

	"rocr/backend/internal/platform/apperror"
	"rocr/backend/internal/platform/httpx"
	"rocr/backend/internal/security"
	userdomain "rocr/backend/internal/user/domain"
)

const bearerPrefix = "bearer "

// UserLoader loads the account named by a token's subject.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Authenticator resolves the Bearer access token of a request to an active user.
type Authenticator struct {
	tokens   *security.TokenProvider
	users    UserLoader
	renderer *httpx.Renderer
}

// NewAuthenticator returns an Authenticator. renderer reports datastore failures.
func NewAuthenticator(tokens *security.TokenProvider, users UserLoader, renderer *httpx.Renderer) *Authenticator {
	if renderer == nil {
		renderer = &httpx.Renderer{}
	}
	return &Authenticator{tokens: tokens, users: users, renderer: renderer}
}

// Require rejects the request with 401 unless it carries a valid access token of an active user.
// Steps run in order and stop at the first failure: bearer extraction, signature and expiry,
// token kind, user lookup.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.authenticate(r)
		if err != nil {
			a.renderer.Error(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// Optional attaches the user when the request authenticates and otherwise proceeds anonymously.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, err := a.authenticate(r); err == nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*userdomain.User, error) {
	token := extractBearer(r)
	if token == "" {
		return nil, apperror.Unauthorized(apperror.CodeMissingToken, "Missing or invalid authorization header")
	}
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, apperror.Unauthorized(apperror.CodeInvalidToken, "Invalid or expired token")
	}
	if claims.Kind != security.KindAccess {
		return nil, apperror.Unauthorized(apperror.CodeInvalidTokenType, "Invalid token type")
	}
	u, err := a.users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.Unauthorized(apperror.CodeUserNotFound, "User not found")
	}
	if !u.IsActive {
		return nil, apperror.Unauthorized(apperror.CodeUserInactive, "User account is inactive")
	}
	return u, nil
}

// extractBearer returns the token from the Authorization header, or "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
