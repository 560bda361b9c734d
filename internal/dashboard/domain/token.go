package domain

import "time"

// Token is the durable credential that authorizes dashboard HTTP access
// and realtime connections after a successful login. Value is an opaque
// random string; a (provider, user id) pair owns at most one row.
type Token struct {
	ID        int64
	Provider  string
	UserID    string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
