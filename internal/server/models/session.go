package models

import "time"

// Session is a server-side record of an issued bearer token. The token is an
// opaque lookup key: it carries no username or expiry itself, so revocation
// and expiry remain authoritative server-side facts.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time

	// UserName is the owning user's name, populated by queries that join
	// through to users. Not a column of the sessions table.
	UserName string
}

// Valid reports whether the session is usable at the given instant.
// Expired rows are not purged implicitly; validity is computed at read time.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
