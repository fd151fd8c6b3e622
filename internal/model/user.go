package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// User is an identity record created on first login with an identity provider
type User struct {
	ID          UserID    `json:"id"`
	ProviderID  string    `json:"providerId"` // immutable, unique per provider
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Identity is the verified profile returned by an identity provider
type Identity struct {
	ProviderID  string
	DisplayName string
	Email       string
	AvatarURL   string
}

// Refresh copies the mutable profile fields from an identity.
// Reports whether anything changed.
func (u *User) Refresh(identity Identity) bool {
	changed := u.DisplayName != identity.DisplayName ||
		u.Email != identity.Email ||
		u.AvatarURL != identity.AvatarURL
	u.DisplayName = identity.DisplayName
	u.Email = identity.Email
	u.AvatarURL = identity.AvatarURL
	return changed
}
