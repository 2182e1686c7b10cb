package domain

import (
	"testing"
	"time"
)

func TestSession_IsExpired(t *testing.T) {
	exp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: exp}
	if s.IsExpired(exp.Add(-time.Second)) {
		t.Error("session should be live before expiry")
	}
	if s.IsExpired(exp) {
		t.Error("session should be live at the expiry instant")
	}
	if !s.IsExpired(exp.Add(time.Millisecond)) {
		t.Error("session should be expired after expiry")
	}
}
