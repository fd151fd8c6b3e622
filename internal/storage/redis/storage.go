package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getJSON loads and decodes key, returning notFound when it is missing
func getJSON(ctx context.Context, c getter, key string, v any, notFound error) error {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// ttlUntil returns the TTL for a record expiring at t.
// Records already past expiry are stored without a TTL and left to the
// expiry checks and DeleteExpiredSessions.
func ttlUntil(t time.Time) time.Duration {
	ttl := time.Until(t)
	if ttl <= 0 {
		return 0
	}
	return ttl
}

// User operations

// CreateUser writes the user only while the provider index key is unset.
// A concurrent write to the index aborts the transaction, which means
// another login created the user first.
func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	indexKey := providerIndexKey(user.ProviderID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, indexKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return model.ErrUserExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userKey(user.ID), data, 0)
			pipe.Set(ctx, indexKey, string(user.ID), 0)
			return nil
		})
		return err
	}, indexKey)
	if errors.Is(err, redis.TxFailedErr) {
		return model.ErrUserExists
	}
	return err
}

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	// Record and index are written in one MULTI
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, userKey(user.ID), data, 0)
		pipe.Set(ctx, providerIndexKey(user.ProviderID), string(user.ID), 0)
		return nil
	})
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	if err := getJSON(ctx, s.client, userKey(id), &user, model.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByProviderID(ctx context.Context, providerID string) (*model.User, error) {
	userID, err := s.client.Get(ctx, providerIndexKey(providerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, model.UserID(userID))
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.TokenDigest), data, ttlUntil(session.ExpiresAt)).Err()
}

func (s *Storage) GetSession(ctx context.Context, tokenDigest string) (*model.Session, error) {
	var session model.Session
	if err := getJSON(ctx, s.client, sessionKey(tokenDigest), &session, model.ErrSessionNotFound); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, tokenDigest string) error {
	return s.client.Del(ctx, sessionKey(tokenDigest)).Err()
}

// DeleteExpiredSessions scans session keys and removes those expired at now.
// Sessions normally expire through their TTL; this catches keys stored without one.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, sessionKeyPattern(), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		var session model.Session
		err := getJSON(ctx, s.client, key, &session, model.ErrSessionNotFound)
		if errors.Is(err, model.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		if !session.Expired(now) {
			continue
		}
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, iter.Err()
}

// Login state operations

func (s *Storage) SaveLoginState(ctx context.Context, state *model.LoginState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, loginStateKey(state.State), data, ttlUntil(state.ExpiresAt)).Err()
}

func (s *Storage) TakeLoginState(ctx context.Context, state string) (*model.LoginState, error) {
	data, err := s.client.GetDel(ctx, loginStateKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrLoginStateNotFound
		}
		return nil, err
	}

	var ls model.LoginState
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, err
	}
	return &ls, nil
}

// Game operations

// CreateGame claims the room code with SETNX before writing the game,
// so two games can never hold the same code.
func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	claimed, err := s.client.SetNX(ctx, roomCodeIndexKey(game.RoomCode), string(game.ID), s.cfg.GameTTL).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return model.ErrRoomCodeTaken
	}

	if err := s.client.Set(ctx, gameKey(game.ID), data, s.cfg.GameTTL).Err(); err != nil {
		// Release the claim so the code is not stranded
		_ = s.client.Del(ctx, roomCodeIndexKey(game.RoomCode)).Err()
		return err
	}
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return s.getGame(ctx, s.client, id)
}

func (s *Storage) getGame(ctx context.Context, c getter, id model.GameID) (*model.Game, error) {
	var game model.Game
	if err := getJSON(ctx, c, gameKey(id), &game, model.ErrGameNotFound); err != nil {
		return nil, err
	}
	game.Normalize()
	return &game, nil
}

func (s *Storage) GetGameByRoomCode(ctx context.Context, code model.RoomCode) (*model.Game, error) {
	gameID, err := s.client.Get(ctx, roomCodeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}
	return s.GetGame(ctx, model.GameID(gameID))
}

func (s *Storage) RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error) {
	n, err := s.client.Exists(ctx, roomCodeIndexKey(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateRounds replaces the rounds under WATCH, retrying when another
// writer changes the game between read and write.
func (s *Storage) UpdateRounds(ctx context.Context, id model.GameID, rounds []model.Round, updatedAt time.Time) (*model.Game, error) {
	key := gameKey(id)
	var updated *model.Game

	txf := func(tx *redis.Tx) error {
		game, err := s.getGame(ctx, tx, id)
		if err != nil {
			return err
		}
		game.Rounds = model.CloneRounds(rounds)
		game.UpdatedAt = updatedAt

		data, err := json.Marshal(game)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		updated = game
		return nil
	}

	for range s.cfg.MaxTxRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("update rounds for game %s: gave up after %d conflicting writes", id, s.cfg.MaxTxRetries)
}
