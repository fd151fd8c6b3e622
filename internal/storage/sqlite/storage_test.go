package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/storage"
	"github.com/mcoot/partyquiz/internal/storage/storagetest"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(Config{Path: filepath.Join(t.TempDir(), "partyquiz.db")})
	require.NoError(t, err)
	return s
}

func TestStorageContract(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T) storage.Storage { return newTestStorage(t) },
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partyquiz.db")

	first, err := New(Config{Path: path})
	require.NoError(t, err)
	game := model.NewGame("game-1", "ABC123", "host-1", time.Now())
	require.NoError(t, first.CreateGame(context.Background(), game))
	require.NoError(t, first.Close())

	second, err := New(Config{Path: path})
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetGame(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Equal(t, model.RoomCode("ABC123"), got.RoomCode)
}

func TestRoomCodeFormatEnforcedBySchema(t *testing.T) {
	s := newTestStorage(t)
	defer s.Close()

	game := model.NewGame("game-1", "TOOLONG1", "host-1", time.Now())
	err := s.CreateGame(context.Background(), game)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrRoomCodeTaken)
}

func TestDuplicateGameIDIsNotRoomCodeConflict(t *testing.T) {
	s := newTestStorage(t)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, model.NewGame("game-1", "ABC123", "host-1", time.Now())))
	err := s.CreateGame(ctx, model.NewGame("game-1", "XYZ789", "host-1", time.Now()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrRoomCodeTaken)
}
