package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partyquiz/internal/dependencies/mocks"
	"github.com/mcoot/partyquiz/internal/dependencies/random"
	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/services/roomcode"
	"github.com/mcoot/partyquiz/internal/storage"
	"github.com/mcoot/partyquiz/internal/storage/memory"
	"github.com/mcoot/partyquiz/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	notifier   *mocks.MockNotifier
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.notifier = mocks.NewMockNotifier()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = s.newController(s.storage, s.random)
	s.ctx = context.Background()
}

func (s *ControllerSuite) newController(store storage.Storage, r random.Random) *Controller {
	return NewController(store, roomcode.NewGenerator(r), s.notifier, s.clock, r, testutil.NopLogger())
}

func (s *ControllerSuite) createGame(code string, host model.UserID) *model.Game {
	s.random.QueueString(code)
	game, err := s.controller.CreateGame(s.ctx, host)
	s.Require().NoError(err)
	return game
}

// raceStorage reports codes as free but rejects the first n inserts,
// as if another request claimed the code in between
type raceStorage struct {
	storage.Storage
	rejections int
}

func (r *raceStorage) CreateGame(ctx context.Context, game *model.Game) error {
	if r.rejections > 0 {
		r.rejections--
		return model.ErrRoomCodeTaken
	}
	return r.Storage.CreateGame(ctx, game)
}

// CreateGame tests

func (s *ControllerSuite) TestCreateGameSucceeds() {
	s.random.QueueString("ABC123")

	game, err := s.controller.CreateGame(s.ctx, "host-1")
	s.Require().NoError(err)

	s.Equal(model.RoomCode("ABC123"), game.RoomCode)
	s.Equal(model.UserID("host-1"), game.HostID)
	s.NotEmpty(game.ID)
	s.Empty(game.Rounds)
	s.Empty(game.Teams)
	s.Equal(model.GameStateUnconfigured, game.State())
	s.Equal(s.clock.Now(), game.CreatedAt)
}

func (s *ControllerSuite) TestCreateGameIsPersisted() {
	game := s.createGame("ABC123", "host-1")

	stored, err := s.storage.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(game.RoomCode, stored.RoomCode)

	byCode, err := s.storage.GetGameByRoomCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(game.ID, byCode.ID)
}

func (s *ControllerSuite) TestCreateGameRetriesOnCollision() {
	s.createGame("AAAAAA", "host-1")
	s.random.QueueString("AAAAAA", "AAAAAA", "BBBBBB")

	game, err := s.controller.CreateGame(s.ctx, "host-2")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("BBBBBB"), game.RoomCode)
}

func (s *ControllerSuite) TestCreateGameRetriesWhenInsertLosesRace() {
	racy := &raceStorage{Storage: s.storage, rejections: 2}
	controller := s.newController(racy, s.random)
	s.random.QueueString("AAAAAA", "BBBBBB", "CCCCCC")

	game, err := controller.CreateGame(s.ctx, "host-1")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("CCCCCC"), game.RoomCode)
}

func (s *ControllerSuite) TestCreateGameExhaustsAfterTenCollisions() {
	s.createGame("AAAAAA", "host-1")
	for range MaxRoomCodeAttempts {
		s.random.QueueString("AAAAAA")
	}
	s.random.QueueString("BBBBBB")

	_, err := s.controller.CreateGame(s.ctx, "host-2")
	s.ErrorIs(err, model.ErrRoomCodeExhausted)

	// Exactly ten codes were drawn: the next one is still queued
	game, err := s.controller.CreateGame(s.ctx, "host-2")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("BBBBBB"), game.RoomCode)
}

func (s *ControllerSuite) TestCreateGameExhaustsWhenEveryInsertLosesRace() {
	racy := &raceStorage{Storage: s.storage, rejections: MaxRoomCodeAttempts}
	controller := s.newController(racy, s.random)
	for i := range MaxRoomCodeAttempts {
		s.random.QueueString(fmt.Sprintf("CODE%02d", i))
	}

	_, err := controller.CreateGame(s.ctx, "host-1")
	s.ErrorIs(err, model.ErrRoomCodeExhausted)
}

func (s *ControllerSuite) TestConcurrentCreateGivesDistinctCodes() {
	const workers = 20
	for range workers {
		s.random.QueueString("SAME01")
	}
	for i := range workers {
		s.random.QueueString(fmt.Sprintf("UNIQ%02d", i))
	}

	var wg sync.WaitGroup
	codes := make(chan model.RoomCode, workers)
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			game, err := s.controller.CreateGame(s.ctx, model.UserID(fmt.Sprintf("host-%d", i)))
			if err != nil {
				errs <- err
				return
			}
			codes <- game.RoomCode
		}(i)
	}
	wg.Wait()
	close(codes)
	close(errs)

	// A worker that draws the taken code ten times in a row runs out of attempts
	for err := range errs {
		s.ErrorIs(err, model.ErrRoomCodeExhausted)
	}

	seen := make(map[model.RoomCode]bool)
	for code := range codes {
		s.False(seen[code], "duplicate room code %s", code)
		seen[code] = true
	}
	s.True(seen["SAME01"], "the shared code is claimed exactly once")
	s.NotEmpty(seen)
}

func (s *ControllerSuite) TestConcurrentCreateWithRealRandom() {
	controller := s.newController(s.storage, random.New())

	const workers = 50
	var wg sync.WaitGroup
	codes := make(chan model.RoomCode, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			game, err := controller.CreateGame(s.ctx, "host-1")
			if err == nil {
				codes <- game.RoomCode
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[model.RoomCode]bool)
	for code := range codes {
		s.True(roomcode.Valid(code))
		s.False(seen[code])
		seen[code] = true
	}
	s.Len(seen, workers)
}

// GetGame tests

func (s *ControllerSuite) TestGetGameAsHost() {
	created := s.createGame("ABC123", "host-1")

	game, err := s.controller.GetGame(s.ctx, created.ID, "host-1")
	s.Require().NoError(err)
	s.Equal(created.ID, game.ID)
	s.Equal(created.RoomCode, game.RoomCode)
}

func (s *ControllerSuite) TestGetGameAsNonHost() {
	created := s.createGame("ABC123", "host-1")

	_, err := s.controller.GetGame(s.ctx, created.ID, "intruder")
	s.ErrorIs(err, model.ErrNotHost)
}

func (s *ControllerSuite) TestGetGameNotFound() {
	_, err := s.controller.GetGame(s.ctx, "missing", "host-1")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestGetGameByRoomCode() {
	created := s.createGame("ABC123", "host-1")

	game, err := s.controller.GetGameByRoomCode(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(created.ID, game.ID)

	_, err = s.controller.GetGameByRoomCode(s.ctx, "ZZZ999")
	s.ErrorIs(err, model.ErrGameNotFound)

	_, err = s.controller.GetGameByRoomCode(s.ctx, "bad code")
	s.ErrorIs(err, model.ErrGameNotFound)
}

// UpdateRounds tests

func (s *ControllerSuite) TestUpdateRoundsSucceeds() {
	created := s.createGame("ABC123", "host-1")
	s.clock.Advance(time.Minute)

	game, err := s.controller.UpdateRounds(s.ctx, created.ID, "host-1", testutil.ValidRounds())
	s.Require().NoError(err)

	s.Equal(testutil.ValidRounds(), game.Rounds)
	s.Equal(model.GameStateConfigured, game.State())
	s.Equal(s.clock.Now(), game.UpdatedAt)

	stored, err := s.storage.GetGame(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(testutil.ValidRounds(), stored.Rounds)
}

func (s *ControllerSuite) TestUpdateRoundsBroadcastsOnce() {
	created := s.createGame("ABC123", "host-1")

	_, err := s.controller.UpdateRounds(s.ctx, created.ID, "host-1", testutil.ValidRounds())
	s.Require().NoError(err)

	calls := s.notifier.Calls()
	s.Require().Len(calls, 1)
	s.Equal(model.RoomCode("ABC123"), calls[0].RoomCode)
	s.Equal(model.EventGameConfigUpdated, calls[0].Event)
	s.Equal(model.GameConfigUpdatedPayload{
		GameID:   created.ID,
		RoomCode: "ABC123",
		Rounds:   testutil.ValidRounds(),
	}, calls[0].Payload)
}

func (s *ControllerSuite) TestUpdateRoundsRejectsWrongCount() {
	created := s.createGame("ABC123", "host-1")
	all := []string{"clue-five", "rhyme-time", "answer-smash", "ridiculous-charades", "sound-round", "broken-karaoke"}

	for _, n := range []int{0, 1, 3, 4, 6} {
		s.Run(fmt.Sprintf("%d rounds", n), func() {
			_, err := s.controller.UpdateRounds(s.ctx, created.ID, "host-1", testutil.Rounds(all[:n]...))
			s.ErrorIs(err, model.ErrInvalidRounds)
		})
	}

	stored, err := s.storage.GetGame(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Empty(stored.Rounds)
	s.Empty(s.notifier.Calls())
}

func (s *ControllerSuite) TestUpdateRoundsValidatesBeforeLookup() {
	_, err := s.controller.UpdateRounds(s.ctx, "missing", "host-1", testutil.Rounds("clue-five"))
	s.ErrorIs(err, model.ErrInvalidRounds)

	created := s.createGame("ABC123", "host-1")
	_, err = s.controller.UpdateRounds(s.ctx, created.ID, "intruder", nil)
	s.ErrorIs(err, model.ErrInvalidRounds)
}

func (s *ControllerSuite) TestUpdateRoundsAsNonHost() {
	created := s.createGame("ABC123", "host-1")

	_, err := s.controller.UpdateRounds(s.ctx, created.ID, "intruder", testutil.ValidRounds())
	s.ErrorIs(err, model.ErrNotHost)

	stored, err := s.storage.GetGame(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Empty(stored.Rounds)
	s.Empty(s.notifier.Calls())
}

func (s *ControllerSuite) TestUpdateRoundsNotFound() {
	_, err := s.controller.UpdateRounds(s.ctx, "missing", "host-1", testutil.ValidRounds())
	s.ErrorIs(err, model.ErrGameNotFound)
	s.Empty(s.notifier.Calls())
}

func (s *ControllerSuite) TestUpdateRoundsCanReconfigure() {
	created := s.createGame("ABC123", "host-1")
	_, err := s.controller.UpdateRounds(s.ctx, created.ID, "host-1", testutil.ValidRounds())
	s.Require().NoError(err)

	second := testutil.Rounds("ridiculous-charades", "broken-karaoke", "sound-round", "answer-smash", "rhyme-time")
	game, err := s.controller.UpdateRounds(s.ctx, created.ID, "host-1", second)
	s.Require().NoError(err)
	s.Equal(second, game.Rounds)
	s.Equal(model.GameStateConfigured, game.State())
	s.Len(s.notifier.Calls(), 2)
}

// Scenario

func (s *ControllerSuite) TestCreateConfigureAndReadBack() {
	s.random.QueueString("Q1Z2X3")
	created, err := s.controller.CreateGame(s.ctx, "host-1")
	s.Require().NoError(err)

	fetched, err := s.controller.GetGame(s.ctx, created.ID, "host-1")
	s.Require().NoError(err)
	s.Equal(model.GameStateUnconfigured, fetched.State())

	_, err = s.controller.UpdateRounds(s.ctx, created.ID, "host-1", testutil.ValidRounds())
	s.Require().NoError(err)

	fetched, err = s.controller.GetGame(s.ctx, created.ID, "host-1")
	s.Require().NoError(err)
	s.Equal(model.GameStateConfigured, fetched.State())
	s.Equal(model.RoomCode("Q1Z2X3"), fetched.RoomCode)
	s.Len(fetched.Rounds, model.RoundsPerGame)
	for i, r := range fetched.Rounds {
		s.Equal(i+1, r.Order)
		s.Empty(r.Questions)
	}
}
