package redis

import (
	"fmt"

	"github.com/mcoot/partyquiz/internal/model"
)

// Key prefix for all partyquiz data
const keyPrefix = "partyquiz"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// providerIndexKey returns the Redis key for the provider id -> user id index
func providerIndexKey(providerID string) string {
	return fmt.Sprintf("%s:idx:provider:%s", keyPrefix, providerID)
}

// sessionKey returns the Redis key for a Session
func sessionKey(tokenDigest string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, tokenDigest)
}

// sessionKeyPattern matches every session key, for SCAN
func sessionKeyPattern() string {
	return fmt.Sprintf("%s:session:*", keyPrefix)
}

// loginStateKey returns the Redis key for a LoginState
func loginStateKey(state string) string {
	return fmt.Sprintf("%s:login_state:%s", keyPrefix, state)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// roomCodeIndexKey returns the Redis key claiming a room code for a game
func roomCodeIndexKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:idx:room_code:%s", keyPrefix, code)
}
