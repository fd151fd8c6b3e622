package factory

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/partyquiz/internal/api"
	"github.com/mcoot/partyquiz/internal/config"
	"github.com/mcoot/partyquiz/internal/dependencies/clock"
	"github.com/mcoot/partyquiz/internal/dependencies/random"
	"github.com/mcoot/partyquiz/internal/realtime"
	"github.com/mcoot/partyquiz/internal/services/auth"
	"github.com/mcoot/partyquiz/internal/services/game"
	"github.com/mcoot/partyquiz/internal/services/roomcode"
	"github.com/mcoot/partyquiz/internal/storage"
	"github.com/mcoot/partyquiz/internal/storage/memory"
	redisstorage "github.com/mcoot/partyquiz/internal/storage/redis"
	"github.com/mcoot/partyquiz/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService     *auth.Service
	GameController  *game.Controller
	HubManager      *realtime.HubManager
	WebSocketServer *realtime.WebSocketServer

	// Router serves the whole HTTP surface
	Router http.Handler
}

// New creates a new application with all dependencies wired from cfg.
// A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}

	var provider auth.IdentityProvider
	if cfg.GoogleEnabled() {
		provider = auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
		})
	} else {
		logger.Warn("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set; login is disabled")
	}

	return newWithDependencies(cfg, store, provider, clock.New(), random.New(), logger), nil
}

// NewStorage opens the storage backend selected by cfg.StorageType
func NewStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "", config.StorageTypeMemory:
		return memory.New(), nil
	case config.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return store, nil
	case config.StorageTypeSQLite:
		sqliteCfg := sqlite.DefaultConfig()
		sqliteCfg.Path = cfg.SQLitePath
		store, err := sqlite.New(sqliteCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid storage type %q", cfg.StorageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	cfg *config.Config,
	store storage.Storage,
	provider auth.IdentityProvider,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *App {
	hubManager := realtime.NewHubManager(logger)
	wsServer := realtime.NewWebSocketServer(hubManager, cfg.Origins(), logger)

	authService := auth.New(store, provider, clk, rnd, logger, auth.Config{
		SessionTTL:    cfg.SessionTTL,
		LoginStateTTL: cfg.LoginStateTTL,
	})
	gameController := game.NewController(store, roomcode.NewGenerator(rnd), hubManager, clk, rnd, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     authService,
		GameController:  gameController,
		HubManager:      hubManager,
		WebSocketServer: wsServer,
		Storage:         store,
		FrontendURL:     cfg.FrontendURL,
		AllowedOrigins:  cfg.Origins(),
		CookieSecure:    cfg.CookieSecure,
	})

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		AuthService:     authService,
		GameController:  gameController,
		HubManager:      hubManager,
		WebSocketServer: wsServer,
		Router:          router,
	}
}

// Close releases the app's hubs and storage
func (a *App) Close() error {
	a.HubManager.Close()
	return a.Storage.Close()
}
