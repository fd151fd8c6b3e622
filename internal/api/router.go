package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/partyquiz/internal/api/handler"
	"github.com/mcoot/partyquiz/internal/api/middleware"
	"github.com/mcoot/partyquiz/internal/realtime"
	"github.com/mcoot/partyquiz/internal/services/auth"
	"github.com/mcoot/partyquiz/internal/services/game"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	GameController  *game.Controller
	HubManager      *realtime.HubManager
	WebSocketServer *realtime.WebSocketServer
	Storage         handler.Pinger

	// FrontendURL receives the browser after login
	FrontendURL string
	// AllowedOrigins are the browser origins CORS lets through
	AllowedOrigins []string
	CookieSecure   bool
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	gameHandler := handler.NewGameHandler(cfg.GameController)
	realtimeHandler := handler.NewRealtimeHandler(cfg.GameController, cfg.HubManager, cfg.WebSocketServer, cfg.Logger)
	authHandler := handler.NewAuthHandler(cfg.AuthService, handler.AuthConfig{
		SuccessURL:   cfg.FrontendURL,
		CookieSecure: cfg.CookieSecure,
	}, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Storage, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	api := r.PathPrefix("/api").Subrouter()

	// Public API routes
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/round-types", gameHandler.RoundTypes).Methods(http.MethodGet)

	// Realtime subscriptions; the room code is the only credential
	api.HandleFunc("/games/rooms/{roomCode}/events", realtimeHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/games/rooms/{roomCode}/ws", realtimeHandler.WebSocket).Methods(http.MethodGet)

	// Game routes (all require auth)
	games := api.PathPrefix("/games").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.Create).Methods(http.MethodPost)
	games.HandleFunc("/{gameId}", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/{gameId}/rounds", gameHandler.UpdateRounds).Methods(http.MethodPut)

	// Login flow and session routes
	r.HandleFunc("/auth/google", authHandler.Google).Methods(http.MethodGet)
	r.HandleFunc("/auth/google/callback", authHandler.Callback).Methods(http.MethodGet)
	r.HandleFunc("/auth/failure", authHandler.Failure).Methods(http.MethodGet)
	r.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", authHandler.Dashboard).Methods(http.MethodGet)
	r.Handle("/user", authMiddleware(http.HandlerFunc(authHandler.User))).Methods(http.MethodGet)
	r.HandleFunc("/", healthHandler.Root).Methods(http.MethodGet)

	// Recovery wraps everything so a panic anywhere still gets a JSON 500
	var h http.Handler = r
	h = middleware.CORS(cfg.AllowedOrigins)(h)
	h = middleware.Logging(cfg.Logger)(h)
	h = middleware.Recovery(cfg.Logger)(h)
	return h
}
