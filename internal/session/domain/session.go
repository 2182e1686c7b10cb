package domain

import "time"

// Session is one active login. Its presence is what makes a refresh token usable;
// deleting the row revokes the token even though the token itself still verifies.
type Session struct {
	ID string
	// UserID owns the session; deleting the user cascades.
	UserID string
	// RefreshToken is the raw token. Repositories persist only its digest.
	RefreshToken string
	UserAgent    string
	IPAddress    string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// IsExpired reports whether the session is past its expiry at now.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
