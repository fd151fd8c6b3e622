package factory

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/partyquiz/internal/config"
	"github.com/mcoot/partyquiz/internal/storage/memory"
	redisstorage "github.com/mcoot/partyquiz/internal/storage/redis"
	"github.com/mcoot/partyquiz/internal/storage/sqlite"
	"github.com/mcoot/partyquiz/internal/testutil"
)

func TestNewStorageSelectsBackend(t *testing.T) {
	mini := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  config.Config
		want any
	}{
		{"memory", config.Config{StorageType: config.StorageTypeMemory}, &memory.Storage{}},
		{"default", config.Config{}, &memory.Storage{}},
		{"redis", config.Config{StorageType: config.StorageTypeRedis, RedisURL: "redis://" + mini.Addr()}, &redisstorage.Storage{}},
		{"sqlite", config.Config{StorageType: config.StorageTypeSQLite, SQLitePath: filepath.Join(t.TempDir(), "quiz.db")}, &sqlite.Storage{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStorage(&tt.cfg)
			require.NoError(t, err)
			defer store.Close()

			assert.IsType(t, tt.want, store)
			assert.NoError(t, store.Ping(t.Context()))
		})
	}
}

func TestNewStorageErrors(t *testing.T) {
	_, err := NewStorage(&config.Config{StorageType: "postgres"})
	assert.Error(t, err)

	_, err = NewStorage(&config.Config{StorageType: config.StorageTypeRedis, RedisURL: "not a url"})
	assert.Error(t, err)
}

func TestNewWithoutGoogleDisablesLogin(t *testing.T) {
	cfg := &config.Config{
		StorageType: config.StorageTypeMemory,
		FrontendURL: "http://localhost:3000",
	}
	app, err := New(cfg, testutil.NopLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.False(t, app.AuthService.ProviderEnabled())
	assert.NotNil(t, app.Router)
}

func TestNewWithGoogleEnablesLogin(t *testing.T) {
	cfg := &config.Config{
		StorageType:        config.StorageTypeMemory,
		FrontendURL:        "http://localhost:3000",
		GoogleClientID:     "client",
		GoogleClientSecret: "secret",
		GoogleCallbackURL:  "http://localhost:5001/auth/google/callback",
	}
	app, err := New(cfg, nil)
	require.NoError(t, err)
	defer app.Close()

	assert.True(t, app.AuthService.ProviderEnabled())
}
