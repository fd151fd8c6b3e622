package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/partyquiz/internal/api/apierr"
	"github.com/mcoot/partyquiz/internal/api/middleware"
	"github.com/mcoot/partyquiz/internal/api/request"
	"github.com/mcoot/partyquiz/internal/api/response"
	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/services/game"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	gameController *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller) *GameHandler {
	return &GameHandler{gameController: gameController}
}

// Create handles POST /api/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	g, err := h.gameController.CreateGame(r.Context(), user.ID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.OK(response.CreatedGame{
		GameID:   g.ID,
		RoomCode: g.RoomCode,
	}))
}

// Get handles GET /api/games/{gameId}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	gameID := model.GameID(mux.Vars(r)["gameId"])

	g, err := h.gameController.GetGame(r.Context(), gameID, user.ID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	g.Normalize()
	response.JSON(w, http.StatusOK, response.OK(g))
}

// UpdateRounds handles PUT /api/games/{gameId}/rounds
func (h *GameHandler) UpdateRounds(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	gameID := model.GameID(mux.Vars(r)["gameId"])

	var req request.UpdateRoundsRequest
	if err := request.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError(err.Error()))
		return
	}

	g, err := h.gameController.UpdateRounds(r.Context(), gameID, user.ID, req.Rounds)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Envelope{
		Success: true,
		Message: "Game rounds configuration updated successfully",
		Data:    response.GameRoundsFromModel(g),
	})
}

// RoundTypes handles GET /api/round-types
func (h *GameHandler) RoundTypes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.OK(model.RoundTypes()))
}
