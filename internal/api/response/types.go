package response

import (
	"github.com/mcoot/partyquiz/internal/model"
)

// Envelope wraps every successful API payload
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK wraps data in a successful envelope
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// CreatedGame is the response for a newly hosted game
type CreatedGame struct {
	GameID   model.GameID   `json:"gameId"`
	RoomCode model.RoomCode `json:"roomCode"`
}

// GameRounds is the response after a rounds update
type GameRounds struct {
	GameID   model.GameID   `json:"gameId"`
	RoomCode model.RoomCode `json:"roomCode"`
	Rounds   []model.Round  `json:"rounds"`
}

// GameRoundsFromModel converts model.Game
func GameRoundsFromModel(g *model.Game) GameRounds {
	return GameRounds{
		GameID:   g.ID,
		RoomCode: g.RoomCode,
		Rounds:   model.CloneRounds(g.Rounds),
	}
}

// UserProfile is the public view of a user
type UserProfile struct {
	ID          model.UserID `json:"id"`
	DisplayName string       `json:"displayName"`
	Email       string       `json:"email"`
	AvatarURL   string       `json:"avatarUrl,omitempty"`
}

// UserProfileFromModel converts model.User
func UserProfileFromModel(u *model.User) UserProfile {
	return UserProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
	}
}

// CurrentUser is the response for GET /user
type CurrentUser struct {
	Authenticated bool        `json:"authenticated"`
	User          UserProfile `json:"user"`
}

// Dashboard is the response for GET /dashboard
type Dashboard struct {
	Message string            `json:"message"`
	User    UserProfile       `json:"user"`
	Links   map[string]string `json:"links"`
}

// AuthFailure is the response for GET /auth/failure
type AuthFailure struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Health is the response for GET /api/health
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}
