package security

import (
	"strings"
	"testing"
	"time"
)

var testSubject = Subject{UserID: "u1", Email: "a@example.com", Role: "manager"}

func TestTokenProvider_IssueAndVerify(t *testing.T) {
	clock := &FixedClock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	p := NewTestTokenProvider(clock.Now)

	for _, kind := range []TokenKind{KindAccess, KindRefresh} {
		token, exp, err := p.Issue(testSubject, kind)
		if err != nil {
			t.Fatalf("Issue(%s): %v", kind, err)
		}
		if token == "" {
			t.Fatalf("Issue(%s) returned empty token", kind)
		}
		if !exp.After(clock.T) {
			t.Fatalf("Issue(%s) expiry %v not after now", kind, exp)
		}
		claims, err := p.Verify(token)
		if err != nil {
			t.Fatalf("Verify(%s): %v", kind, err)
		}
		if claims.Subject != "u1" || claims.Email != "a@example.com" || claims.Role != "manager" || claims.Kind != kind {
			t.Errorf("Verify(%s) claims = %+v", kind, claims)
		}
		if claims.ID == "" {
			t.Errorf("Verify(%s) jti empty", kind)
		}
	}
}

func TestTokenProvider_TTLs(t *testing.T) {
	clock := &FixedClock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	p := NewTestTokenProvider(clock.Now)
	_, accessExp, _ := p.Issue(testSubject, KindAccess)
	if want := clock.T.Add(15 * time.Minute); !accessExp.Equal(want) {
		t.Errorf("access expiry = %v, want %v", accessExp, want)
	}
	_, refreshExp, _ := p.Issue(testSubject, KindRefresh)
	if want := clock.T.Add(24 * time.Hour); !refreshExp.Equal(want) {
		t.Errorf("refresh expiry = %v, want %v", refreshExp, want)
	}
}

func TestTokenProvider_ExpiryBoundary(t *testing.T) {
	clock := &FixedClock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	p := NewTestTokenProvider(clock.Now)
	token, exp, err := p.Issue(testSubject, KindAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.T = exp.Add(-time.Second)
	if _, err := p.Verify(token); err != nil {
		t.Errorf("one second before expiry: %v", err)
	}
	clock.T = exp
	if _, err := p.Verify(token); err != ErrInvalidToken {
		t.Errorf("at expiry: want ErrInvalidToken, got %v", err)
	}
	clock.T = exp.Add(time.Hour)
	if _, err := p.Verify(token); err != ErrInvalidToken {
		t.Errorf("after expiry: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_WrongSecret(t *testing.T) {
	issuer := NewTokenProvider("secret-a", time.Minute, time.Hour)
	verifier := NewTokenProvider("secret-b", time.Minute, time.Hour)
	token, _, err := issuer.Issue(testSubject, KindAccess)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify with other secret: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_Tampered(t *testing.T) {
	p := NewTestTokenProvider(nil)
	token, _, _ := p.Issue(testSubject, KindAccess)
	other, _, _ := p.Issue(Subject{UserID: "u2", Email: "b@example.com", Role: "admin"}, KindAccess)
	// payload of other, signature of token
	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	tampered := parts[0] + "." + otherParts[1] + "." + parts[2]
	if _, err := p.Verify(tampered); err != ErrInvalidToken {
		t.Errorf("tampered signature: want ErrInvalidToken, got %v", err)
	}
	if _, err := p.Verify("not-a-jwt"); err != ErrInvalidToken {
		t.Errorf("garbage: want ErrInvalidToken, got %v", err)
	}
	if _, err := p.Verify(""); err != ErrInvalidToken {
		t.Errorf("empty: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_UniqueTokens(t *testing.T) {
	clock := &FixedClock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	p := NewTestTokenProvider(clock.Now)
	a, _, _ := p.Issue(testSubject, KindRefresh)
	b, _, _ := p.Issue(testSubject, KindRefresh)
	if a == b {
		t.Error("two refresh tokens issued in the same second must differ")
	}
}

func TestTokenProvider_UnknownKind(t *testing.T) {
	p := NewTestTokenProvider(nil)
	if _, _, err := p.Issue(testSubject, TokenKind("id")); err != ErrInvalidToken {
		t.Errorf("unknown kind: want ErrInvalidToken, got %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"12h", 12 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"0m", DefaultTokenTTL},
		{"106751d", 106751 * 24 * time.Hour},
		{"106752d", DefaultTokenTTL},
		{"200000d", DefaultTokenTTL},
		{"9999999999999d", DefaultTokenTTL},
		{"99999999999999999999s", DefaultTokenTTL},
		{"", DefaultTokenTTL},
		{"15", DefaultTokenTTL},
		{"1h30m", DefaultTokenTTL},
		{"-5m", DefaultTokenTTL},
		{"5w", DefaultTokenTTL},
	}
	for _, tc := range cases {
		if got := ParseDuration(tc.in); got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestHashRefreshToken(t *testing.T) {
	a := HashRefreshToken("token-a")
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64", len(a))
	}
	if a != HashRefreshToken("token-a") {
		t.Error("digest must be deterministic")
	}
	if a == HashRefreshToken("token-b") {
		t.Error("different tokens must not share a digest")
	}
}
