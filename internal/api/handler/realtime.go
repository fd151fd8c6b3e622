package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/partyquiz/internal/api/apierr"
	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/realtime"
	"github.com/mcoot/partyquiz/internal/services/game"
	"github.com/mcoot/partyquiz/internal/services/roomcode"
)

// RealtimeHandler subscribes clients to a room's events
type RealtimeHandler struct {
	gameController *game.Controller
	hubManager     *realtime.HubManager
	websockets     *realtime.WebSocketServer
	logger         *slog.Logger
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(
	gameController *game.Controller,
	hubManager *realtime.HubManager,
	websockets *realtime.WebSocketServer,
	logger *slog.Logger,
) *RealtimeHandler {
	return &RealtimeHandler{
		gameController: gameController,
		hubManager:     hubManager,
		websockets:     websockets,
		logger:         logger,
	}
}

// Events handles GET /api/games/rooms/{roomCode}/events
func (h *RealtimeHandler) Events(w http.ResponseWriter, r *http.Request) {
	code, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}
	realtime.ServeSSE(w, r, h.hubManager, code)
}

// WebSocket handles GET /api/games/rooms/{roomCode}/ws
func (h *RealtimeHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	code, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}
	h.websockets.Serve(w, r, code)
}

// resolveRoom writes a 404 unless the path names an existing game's room
func (h *RealtimeHandler) resolveRoom(w http.ResponseWriter, r *http.Request) (model.RoomCode, bool) {
	code := roomcode.Normalize(mux.Vars(r)["roomCode"])

	if _, err := h.gameController.GetGameByRoomCode(r.Context(), code); err != nil {
		if errors.Is(err, model.ErrGameNotFound) {
			apierr.WriteError(w, apierr.NewRoomNotFoundError())
			return "", false
		}
		h.logger.Error("failed to look up room",
			slog.String("room_code", string(code)),
			slog.String("error", err.Error()))
		apierr.WriteError(w, err)
		return "", false
	}
	return code, true
}
