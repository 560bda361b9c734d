package domain

import "time"

// Session is a durable login session row. Data is an opaque serialized
// payload owned by the session layer; the store never inspects it.
type Session struct {
	ID        string
	ExpiresAt time.Time
	Data      []byte
}

// Expired reports whether the session has passed its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
