package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/partyquiz/internal/dependencies/clock"
	"github.com/mcoot/partyquiz/internal/dependencies/random"
	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/services/roomcode"
	"github.com/mcoot/partyquiz/internal/storage"
)

// MaxRoomCodeAttempts bounds how many room codes CreateGame tries
const MaxRoomCodeAttempts = 10

// Notifier delivers realtime events to everyone subscribed to a room
type Notifier interface {
	Broadcast(code model.RoomCode, event model.EventType, payload any)
}

// Controller manages the game lifecycle: creation, lookup and round configuration
type Controller struct {
	storage  storage.Storage
	codes    *roomcode.Generator
	notifier Notifier
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	codes *roomcode.Generator,
	notifier Notifier,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		codes:    codes,
		notifier: notifier,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "game-controller")),
	}
}

// CreateGame creates an unconfigured game hosted by host under a fresh room code.
// Each code that is already in use, or is claimed by a concurrent insert,
// costs one of MaxRoomCodeAttempts attempts.
func (c *Controller) CreateGame(ctx context.Context, host model.UserID) (*model.Game, error) {
	for attempt := 1; attempt <= MaxRoomCodeAttempts; attempt++ {
		code := c.codes.Generate()

		exists, err := c.storage.RoomCodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("check room code: %w", err)
		}
		if exists {
			c.logger.Debug("room code collision", slog.String("room_code", string(code)), slog.Int("attempt", attempt))
			continue
		}

		game := model.NewGame(model.GameID(c.random.UUID()), code, host, c.clock.Now())
		err = c.storage.CreateGame(ctx, game)
		if errors.Is(err, model.ErrRoomCodeTaken) {
			c.logger.Debug("room code claimed concurrently", slog.String("room_code", string(code)), slog.Int("attempt", attempt))
			continue
		}
		if err != nil {
			c.logger.Error("failed to save game",
				slog.String("game_id", string(game.ID)),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		c.logger.Info("game created",
			slog.String("game_id", string(game.ID)),
			slog.String("room_code", string(game.RoomCode)),
			slog.String("host_id", string(host)),
		)
		return game, nil
	}

	c.logger.Error("room codes exhausted", slog.Int("attempts", MaxRoomCodeAttempts))
	return nil, model.ErrRoomCodeExhausted
}

// GetGame returns a game to its host
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID, userID model.UserID) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.IsHost(userID) {
		return nil, model.ErrNotHost
	}
	return game, nil
}

// GetGameByRoomCode looks up a game by its room code
func (c *Controller) GetGameByRoomCode(ctx context.Context, code model.RoomCode) (*model.Game, error) {
	if !roomcode.Valid(code) {
		return nil, model.ErrGameNotFound
	}
	return c.storage.GetGameByRoomCode(ctx, code)
}

// UpdateRounds replaces the rounds of a game and notifies the room.
// The payload is validated before the game is looked up.
func (c *Controller) UpdateRounds(ctx context.Context, gameID model.GameID, userID model.UserID, rounds []model.Round) (*model.Game, error) {
	if err := model.ValidateRounds(rounds); err != nil {
		return nil, err
	}

	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.IsHost(userID) {
		return nil, model.ErrNotHost
	}

	updated, err := c.storage.UpdateRounds(ctx, gameID, rounds, c.clock.Now())
	if err != nil {
		c.logger.Error("failed to update rounds",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.notifier.Broadcast(updated.RoomCode, model.EventGameConfigUpdated, model.GameConfigUpdatedPayload{
		GameID:   updated.ID,
		RoomCode: updated.RoomCode,
		Rounds:   updated.Rounds,
	})

	c.logger.Info("game rounds updated",
		slog.String("game_id", string(updated.ID)),
		slog.String("room_code", string(updated.RoomCode)),
	)
	return updated, nil
}
