package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rocr/backend/internal/security"
	sessiondomain "rocr/backend/internal/session/domain"
	"rocr/backend/internal/testutil/memrepo"
	userdomain "rocr/backend/internal/user/domain"
)

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) LogEvent(_ context.Context, _, action, _, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

func (a *recordingAudit) has(action string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, got := range a.actions {
		if got == action {
			return true
		}
	}
	return false
}

type testEnv struct {
	svc      *AuthService
	users    *memrepo.Users
	sessions *memrepo.Sessions
	tokens   *security.TokenProvider
	hasher   *security.Hasher
	clock    *security.FixedClock
	audit    *recordingAudit
}

const testPassword = "correct-horse"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &security.FixedClock{T: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	env := &testEnv{
		users:    memrepo.NewUsers(),
		sessions: memrepo.NewSessions(),
		tokens:   security.NewTestTokenProvider(clock.Now),
		hasher:   security.NewHasher(4),
		clock:    clock,
		audit:    &recordingAudit{},
	}
	env.svc = NewAuthService(env.users, env.sessions, env.hasher, env.tokens, env.audit, WithClock(clock.Now))
	return env
}

func (e *testEnv) addUser(t *testing.T, id, email string, active bool) *userdomain.User {
	t.Helper()
	hash, err := e.hasher.Hash([]byte(testPassword))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	u := &userdomain.User{
		ID: id, Email: email, PasswordHash: hash, Name: "Test User",
		Role: userdomain.RoleEmployee, IsActive: active, CreatedAt: e.clock.Now(),
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return u
}

func TestLogin_PersistsSession(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u-1", "ana@example.com", true)

	res, err := env.svc.Login(context.Background(), "  Ana@Example.com ", testPassword, "curl/8", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != "u-1" || res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("result = %+v", res)
	}
	sess, err := env.sessions.FindByToken(context.Background(), res.RefreshToken)
	if err != nil || sess == nil {
		t.Fatalf("session for refresh token = %v, %v", sess, err)
	}
	if sess.UserID != "u-1" || sess.UserAgent != "curl/8" || sess.IPAddress != "1.2.3.4" {
		t.Errorf("session = %+v", sess)
	}
	if want := env.clock.Now().Add(env.tokens.RefreshTTL()); !sess.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, want)
	}
	claims, err := env.tokens.Verify(res.AccessToken)
	if err != nil || claims.Kind != security.KindAccess || claims.Role != "employee" {
		t.Errorf("access claims = %+v, %v", claims, err)
	}
	if !env.audit.has("login_success") {
		t.Error("login_success not audited")
	}
}

func TestLogin_InactiveCreatesNoSession(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u-1", "ana@example.com", false)

	_, err := env.svc.Login(context.Background(), "ana@example.com", testPassword, "", "")
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("err = %v, want ErrAccountInactive", err)
	}
	if n := env.sessions.CountForUser("u-1"); n != 0 {
		t.Errorf("sessions = %d, want 0", n)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u-1", "ana@example.com", true)
	env.addUser(t, "u-2", "old@example.com", false)

	tests := []struct {
		name, email, password string
	}{
		{"unknown email", "nobody@example.com", testPassword},
		{"wrong password", "ana@example.com", "wrong"},
		{"inactive with wrong password", "old@example.com", "wrong"},
		{"empty password", "ana@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Login(context.Background(), tt.email, tt.password, "", "")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
	if !env.audit.has("login_failure") {
		t.Error("login_failure not audited")
	}
}

func TestRefresh_IssuesAccessTokenWithoutRotation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u-1", "ana@example.com", true)
	res, err := env.svc.Login(context.Background(), "ana@example.com", testPassword, "", "")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		env.clock.Advance(time.Minute)
		access, err := env.svc.Refresh(context.Background(), res.RefreshToken)
		if err != nil {
			t.Fatalf("Refresh %d: %v", i, err)
		}
		claims, err := env.tokens.Verify(access)
		if err != nil || claims.Kind != security.KindAccess || claims.Subject != "u-1" {
			t.Errorf("claims = %+v, %v", claims, err)
		}
	}
	if n := env.sessions.CountForUser("u-1"); n != 1 {
		t.Errorf("sessions = %d, want 1", n)
	}
}

func TestRefresh_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u-1", "ana@example.com", true)
	res, err := env.svc.Login(context.Background(), "ana@example.com", testPassword, "", "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.svc.Refresh(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v", err)
	}
	if _, err := env.svc.Refresh(context.Background(), res.AccessToken); !errors.Is(err, ErrInvalidTokenType) {
		t.Errorf("access token: err = %v", err)
	}
	orphan, _, _ := env.tokens.Issue(security.Subject{UserID: "u-1", Email: "ana@example.com", Role: "employee"}, security.KindRefresh)
	if _, err := env.svc.Refresh(context.Background(), orphan); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("no session: err = %v", err)
	}
}

func TestRefresh_ExpiredSessionIsDeleted(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u-1", "ana@example.com", true)
	tok, _, _ := env.tokens.Issue(security.Subject{UserID: "u-1", Email: "ana@example.com", Role: "employee"}, security.KindRefresh)
	_ = env.sessions.Create(context.Background(), &sessiondomain.Session{
		ID: "s-1", UserID: "u-1", RefreshToken: tok, ExpiresAt: env.clock.Now().Add(-time.Second),
	})

	if _, err := env.svc.Refresh(context.Background(), tok); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if s, _ := env.sessions.FindByToken(context.Background(), tok); s != nil {
		t.Error("expired session should be deleted")
	}
	if _, err := env.svc.Refresh(context.Background(), tok); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second attempt: err = %v, want ErrSessionNotFound", err)
	}
}

func TestRefresh_InactiveUser(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "u-1", "ana@example.com", true)
	res, err := env.svc.Login(context.Background(), "ana@example.com", testPassword, "", "")
	if err != nil {
		t.Fatal(err)
	}
	u.IsActive = false
	_ = env.users.Update(context.Background(), u)

	if _, err := env.svc.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, ErrUserInvalid) {
		t.Errorf("err = %v, want ErrUserInvalid", err)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "u-1", "ana@example.com", true)
	ctx := context.Background()
	first, _ := env.svc.Login(ctx, "ana@example.com", testPassword, "laptop", "")
	env.clock.Advance(time.Second)
	second, _ := env.svc.Login(ctx, "ana@example.com", testPassword, "phone", "")

	if err := env.svc.Logout(ctx, "u-1", first.RefreshToken); err != nil {
		t.Fatalf("Logout single: %v", err)
	}
	if _, err := env.svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("first after single logout: %v", err)
	}
	if _, err := env.svc.Refresh(ctx, second.RefreshToken); err != nil {
		t.Errorf("second should survive single logout: %v", err)
	}

	if err := env.svc.Logout(ctx, "u-1", ""); err != nil {
		t.Fatalf("Logout all: %v", err)
	}
	if _, err := env.svc.Refresh(ctx, second.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second after global logout: %v", err)
	}
	if !env.audit.has("logout") {
		t.Error("logout not audited")
	}
}

func TestUpdatePassword(t *testing.T) {
	env := newTestEnv(t)
	u := env.addUser(t, "u-1", "ana@example.com", true)
	ctx := context.Background()
	res, _ := env.svc.Login(ctx, "ana@example.com", testPassword, "", "")

	if err := env.svc.UpdatePassword(ctx, u, "wrong", "new-password-1"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong current: err = %v", err)
	}
	if n := env.sessions.CountForUser("u-1"); n != 1 {
		t.Fatalf("failed change must keep sessions, got %d", n)
	}

	if err := env.svc.UpdatePassword(ctx, u, testPassword, "new-password-1"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := env.tokens.Verify(res.AccessToken); err != nil {
		t.Errorf("old access token should still verify: %v", err)
	}
	if _, err := env.svc.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("old refresh token: err = %v, want ErrSessionNotFound", err)
	}
	if _, err := env.svc.Login(ctx, "ana@example.com", testPassword, "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password: err = %v", err)
	}
	if _, err := env.svc.Login(ctx, "ana@example.com", "new-password-1", "", ""); err != nil {
		t.Errorf("new password: %v", err)
	}
	if !env.audit.has("password_change") {
		t.Error("password_change not audited")
	}
}

func TestLogin_DatastoreError(t *testing.T) {
	env := newTestEnv(t)
	env.users.Err = errors.New("connection refused")
	_, err := env.svc.Login(context.Background(), "ana@example.com", testPassword, "", "")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want datastore error", err)
	}
}
