package model

// EventType names a realtime event sent to a room's subscribers
type EventType string

const (
	EventGameConfigUpdated EventType = "gameConfigUpdated"
)

// GameConfigUpdatedPayload is broadcast after a host replaces a game's rounds
type GameConfigUpdatedPayload struct {
	GameID   GameID   `json:"gameId"`
	RoomCode RoomCode `json:"roomCode"`
	Rounds   []Round  `json:"rounds"`
}
