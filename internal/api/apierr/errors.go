package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/services/auth"
)

// ErrorResponse is the JSON body of every API error
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidRounds      = "INVALID_ROUNDS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotHost            = "NOT_HOST"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeRoomCodesExhausted = "ROOM_CODES_EXHAUSTED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an error code and message
type httpError struct {
	status  int
	code    string
	message string
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Code: he.code, Message: he.message})
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrInvalidRounds):
		return &httpError{http.StatusBadRequest, CodeInvalidRounds, err.Error()}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, CodeGameNotFound, "Game not found"}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, CodeNotHost, "Only the game host can perform this action"}
	case errors.Is(err, model.ErrRoomCodeExhausted):
		return &httpError{http.StatusInternalServerError, CodeRoomCodesExhausted, "Failed to generate a unique room code, please try again"}

	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired session"}

	default:
		return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, CodeInvalidRequest, message}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, CodeUnauthorized, "Unauthorized. Please log in."}
}

// NewRoomNotFoundError creates a not found error for an unknown room code
func NewRoomNotFoundError() error {
	return &httpError{http.StatusNotFound, CodeGameNotFound, "No game with that room code"}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
}
