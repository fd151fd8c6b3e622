package model

import "time"

// Session is a persisted login session.
// Only a digest of the client's token is ever stored.
type Session struct {
	TokenDigest string    `json:"tokenDigest"`
	UserID      UserID    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginState is the pending half of a provider login, consumed once by the callback
type LoginState struct {
	State        string    `json:"state"`
	CodeVerifier string    `json:"codeVerifier"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}
