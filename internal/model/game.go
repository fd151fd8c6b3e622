package model

import "time"

// GameID uniquely identifies a game
type GameID string

// RoomCode is a short human-shareable identifier players use to join a game
type RoomCode string

// GameState is derived from the rounds configuration
type GameState string

const (
	GameStateUnconfigured GameState = "unconfigured" // No rounds chosen yet
	GameStateConfigured   GameState = "configured"   // Exactly RoundsPerGame rounds chosen
)

// Game is a hosted quiz and its round configuration
type Game struct {
	ID       GameID   `json:"id"`
	RoomCode RoomCode `json:"roomCode"`
	HostID   UserID   `json:"hostId"`
	Rounds   []Round  `json:"rounds"`
	// Teams is reserved; nothing populates it yet
	Teams     []string  `json:"teams"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewGame returns an unconfigured game hosted by hostID
func NewGame(id GameID, code RoomCode, hostID UserID, now time.Time) *Game {
	return &Game{
		ID:        id,
		RoomCode:  code,
		HostID:    hostID,
		Rounds:    []Round{},
		Teams:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State returns the configuration state of the game
func (g *Game) State() GameState {
	if len(g.Rounds) == RoundsPerGame {
		return GameStateConfigured
	}
	return GameStateUnconfigured
}

// IsHost reports whether userID hosts this game
func (g *Game) IsHost(userID UserID) bool {
	return g.HostID == userID
}

// Normalize replaces nil slices so the game always encodes with [] rather than null
func (g *Game) Normalize() {
	if g.Rounds == nil {
		g.Rounds = []Round{}
	}
	for i := range g.Rounds {
		if g.Rounds[i].Questions == nil {
			g.Rounds[i].Questions = []string{}
		}
	}
	if g.Teams == nil {
		g.Teams = []string{}
	}
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	c := *g
	c.Rounds = CloneRounds(g.Rounds)
	c.Teams = append([]string{}, g.Teams...)
	return &c
}

// CloneRounds returns a deep copy of rounds, never nil
func CloneRounds(rounds []Round) []Round {
	out := make([]Round, len(rounds))
	for i, r := range rounds {
		r.Questions = append([]string{}, r.Questions...)
		out[i] = r
	}
	return out
}
