package storage

import (
	"context"
	"time"

	"github.com/mcoot/partyquiz/internal/model"
)

// Storage defines the interface for data persistence.
//
// Implementations return copies: mutating a returned value never changes
// stored state without a further call.
type Storage interface {
	// User operations

	// CreateUser inserts a new user. It returns model.ErrUserExists when a user
	// with the same provider id is already stored; this check is atomic with the insert.
	CreateUser(ctx context.Context, user *model.User) error
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByProviderID(ctx context.Context, providerID string) (*model.User, error)

	// Session operations, keyed by token digest
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, tokenDigest string) (*model.Session, error)
	DeleteSession(ctx context.Context, tokenDigest string) error
	// DeleteExpiredSessions removes sessions expired at now and reports how many went
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Login state operations
	SaveLoginState(ctx context.Context, state *model.LoginState) error
	// TakeLoginState returns and removes the login state in one step
	TakeLoginState(ctx context.Context, state string) (*model.LoginState, error)

	// Game operations

	// CreateGame inserts a new game. It returns model.ErrRoomCodeTaken when
	// another game already holds the room code; this check is atomic with the insert.
	CreateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	GetGameByRoomCode(ctx context.Context, code model.RoomCode) (*model.Game, error)
	RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error)
	// UpdateRounds atomically replaces the rounds of a game and returns the updated game
	UpdateRounds(ctx context.Context, id model.GameID, rounds []model.Round, updatedAt time.Time) (*model.Game, error)

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error
	Close() error
}
