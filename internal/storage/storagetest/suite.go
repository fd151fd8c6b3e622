// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/storage"
	"github.com/mcoot/partyquiz/internal/testutil"
)

// Suite runs the storage contract against the store built by NewStorage.
// Backends embed it in their own tests:
//
//	suite.Run(t, &storagetest.Suite{NewStorage: newTestStorage})
type Suite struct {
	suite.Suite

	// NewStorage builds a fresh, empty store for each test
	NewStorage func(t *testing.T) storage.Storage

	store storage.Storage
	ctx   context.Context
	now   time.Time
}

func (s *Suite) SetupTest() {
	s.store = s.NewStorage(s.T())
	s.ctx = context.Background()
	s.now = time.Now().UTC().Truncate(time.Millisecond)
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *Suite) newUser(id, providerID string) *model.User {
	return &model.User{
		ID:          model.UserID(id),
		ProviderID:  providerID,
		DisplayName: "User " + id,
		Email:       id + "@example.com",
		AvatarURL:   "https://example.com/" + id + ".png",
		CreatedAt:   s.now,
		UpdatedAt:   s.now,
	}
}

func (s *Suite) newGame(id, code string) *model.Game {
	return model.NewGame(model.GameID(id), model.RoomCode(code), "host-1", s.now)
}

func (s *Suite) rounds() []model.Round {
	return testutil.ValidRounds()
}

// User tests

func (s *Suite) TestSaveAndGetUser() {
	user := s.newUser("user-1", "google-1")
	s.Require().NoError(s.store.SaveUser(s.ctx, user))

	got, err := s.store.GetUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(user.ProviderID, got.ProviderID)
	s.Equal(user.DisplayName, got.DisplayName)
	s.Equal(user.Email, got.Email)
	s.Equal(user.AvatarURL, got.AvatarURL)
	s.True(user.CreatedAt.Equal(got.CreatedAt))
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.store.GetUser(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.store.GetUserByProviderID(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestGetUserByProviderID() {
	s.Require().NoError(s.store.SaveUser(s.ctx, s.newUser("user-1", "google-1")))
	s.Require().NoError(s.store.SaveUser(s.ctx, s.newUser("user-2", "google-2")))

	got, err := s.store.GetUserByProviderID(s.ctx, "google-2")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-2"), got.ID)
}

func (s *Suite) TestSaveUserUpdatesExisting() {
	user := s.newUser("user-1", "google-1")
	s.Require().NoError(s.store.SaveUser(s.ctx, user))

	user.DisplayName = "Renamed"
	user.UpdatedAt = s.now.Add(time.Minute)
	s.Require().NoError(s.store.SaveUser(s.ctx, user))

	got, err := s.store.GetUserByProviderID(s.ctx, "google-1")
	s.Require().NoError(err)
	s.Equal("Renamed", got.DisplayName)
	s.True(user.UpdatedAt.Equal(got.UpdatedAt))
}

// Session tests

func (s *Suite) TestCreateUserRejectsTakenProviderID() {
	s.Require().NoError(s.store.CreateUser(s.ctx, s.newUser("user-1", "google-1")))

	err := s.store.CreateUser(s.ctx, s.newUser("user-2", "google-1"))
	s.ErrorIs(err, model.ErrUserExists)

	got, err := s.store.GetUserByProviderID(s.ctx, "google-1")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), got.ID)

	_, err = s.store.GetUser(s.ctx, "user-2")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestConcurrentCreateSameProviderID() {
	const workers = 8
	var wg sync.WaitGroup
	var created, exists atomic.Int32

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.CreateUser(s.ctx, s.newUser(fmt.Sprintf("user-%d", i), "google-same"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, model.ErrUserExists):
				exists.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(workers-1), exists.Load())
}

func (s *Suite) TestSessionLifecycle() {
	session := &model.Session{
		TokenDigest: "digest-1",
		UserID:      "user-1",
		CreatedAt:   s.now,
		ExpiresAt:   s.now.Add(time.Hour),
	}
	s.Require().NoError(s.store.SaveSession(s.ctx, session))

	got, err := s.store.GetSession(s.ctx, "digest-1")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), got.UserID)
	s.True(session.ExpiresAt.Equal(got.ExpiresAt))

	s.Require().NoError(s.store.DeleteSession(s.ctx, "digest-1"))
	_, err = s.store.GetSession(s.ctx, "digest-1")
	s.ErrorIs(err, model.ErrSessionNotFound)

	// Deleting again is not an error
	s.NoError(s.store.DeleteSession(s.ctx, "digest-1"))
}

func (s *Suite) TestDeleteExpiredSessions() {
	live := &model.Session{TokenDigest: "live", UserID: "user-1", CreatedAt: s.now, ExpiresAt: s.now.Add(time.Hour)}
	stale := &model.Session{TokenDigest: "stale", UserID: "user-1", CreatedAt: s.now.Add(-2 * time.Hour), ExpiresAt: s.now.Add(-time.Hour)}
	s.Require().NoError(s.store.SaveSession(s.ctx, live))
	s.Require().NoError(s.store.SaveSession(s.ctx, stale))

	removed, err := s.store.DeleteExpiredSessions(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.GetSession(s.ctx, "stale")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.store.GetSession(s.ctx, "live")
	s.NoError(err)
}

// Login state tests

func (s *Suite) TestTakeLoginStateOnlyOnce() {
	state := &model.LoginState{
		State:        "state-1",
		CodeVerifier: "verifier-1",
		CreatedAt:    s.now,
		ExpiresAt:    s.now.Add(10 * time.Minute),
	}
	s.Require().NoError(s.store.SaveLoginState(s.ctx, state))

	got, err := s.store.TakeLoginState(s.ctx, "state-1")
	s.Require().NoError(err)
	s.Equal("verifier-1", got.CodeVerifier)

	_, err = s.store.TakeLoginState(s.ctx, "state-1")
	s.ErrorIs(err, model.ErrLoginStateNotFound)
}

func (s *Suite) TestTakeLoginStateUnknown() {
	_, err := s.store.TakeLoginState(s.ctx, "nope")
	s.ErrorIs(err, model.ErrLoginStateNotFound)
}

// Game tests

func (s *Suite) TestCreateAndGetGame() {
	game := s.newGame("game-1", "ABC123")
	s.Require().NoError(s.store.CreateGame(s.ctx, game))

	got, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("ABC123"), got.RoomCode)
	s.Equal(model.UserID("host-1"), got.HostID)
	s.NotNil(got.Rounds)
	s.Empty(got.Rounds)
	s.NotNil(got.Teams)
	s.Equal(model.GameStateUnconfigured, got.State())
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.store.GetGame(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrGameNotFound)

	_, err = s.store.GetGameByRoomCode(s.ctx, "ZZZZZZ")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestGetGameByRoomCode() {
	s.Require().NoError(s.store.CreateGame(s.ctx, s.newGame("game-1", "ABC123")))

	got, err := s.store.GetGameByRoomCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), got.ID)
}

func (s *Suite) TestRoomCodeExists() {
	exists, err := s.store.RoomCodeExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.store.CreateGame(s.ctx, s.newGame("game-1", "ABC123")))

	exists, err = s.store.RoomCodeExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *Suite) TestCreateGameRejectsTakenRoomCode() {
	s.Require().NoError(s.store.CreateGame(s.ctx, s.newGame("game-1", "ABC123")))

	err := s.store.CreateGame(s.ctx, s.newGame("game-2", "ABC123"))
	s.ErrorIs(err, model.ErrRoomCodeTaken)

	got, err := s.store.GetGameByRoomCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), got.ID)

	_, err = s.store.GetGame(s.ctx, "game-2")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestConcurrentCreateSameRoomCode() {
	const workers = 8
	var wg sync.WaitGroup
	var created, taken atomic.Int32

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.CreateGame(s.ctx, s.newGame(fmt.Sprintf("game-%d", i), "SAME01"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, model.ErrRoomCodeTaken):
				taken.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(workers-1), taken.Load())
}

func (s *Suite) TestUpdateRounds() {
	s.Require().NoError(s.store.CreateGame(s.ctx, s.newGame("game-1", "ABC123")))
	later := s.now.Add(time.Minute)

	updated, err := s.store.UpdateRounds(s.ctx, "game-1", s.rounds(), later)
	s.Require().NoError(err)
	s.Len(updated.Rounds, model.RoundsPerGame)
	s.True(later.Equal(updated.UpdatedAt))

	got, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(s.rounds(), got.Rounds)
	s.Equal(model.GameStateConfigured, got.State())
	s.Equal(model.RoomCode("ABC123"), got.RoomCode)
	s.True(s.now.Equal(got.CreatedAt))
}

func (s *Suite) TestUpdateRoundsReplacesPrevious() {
	s.Require().NoError(s.store.CreateGame(s.ctx, s.newGame("game-1", "ABC123")))
	_, err := s.store.UpdateRounds(s.ctx, "game-1", s.rounds(), s.now)
	s.Require().NoError(err)

	second := s.rounds()
	second[0], second[4] = second[4], second[0]
	second[0].Order, second[4].Order = 1, 5
	_, err = s.store.UpdateRounds(s.ctx, "game-1", second, s.now)
	s.Require().NoError(err)

	got, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal("broken-karaoke", got.Rounds[0].ID)
	s.Equal("clue-five", got.Rounds[4].ID)
}

func (s *Suite) TestUpdateRoundsNotFound() {
	_, err := s.store.UpdateRounds(s.ctx, "nonexistent", s.rounds(), s.now)
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestReturnedGameIsACopy() {
	s.Require().NoError(s.store.CreateGame(s.ctx, s.newGame("game-1", "ABC123")))

	got, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	got.Rounds = append(got.Rounds, model.Round{ID: "clue-five"})
	got.HostID = "someone-else"

	again, err := s.store.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Empty(again.Rounds)
	s.Equal(model.UserID("host-1"), again.HostID)
}

func (s *Suite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
