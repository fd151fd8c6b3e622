package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mcoot/partyquiz/internal/model"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// UpdateRoundsRequest is the request body for replacing a game's rounds
type UpdateRoundsRequest struct {
	Rounds []model.Round `json:"rounds"`
}

// Decode reads a single JSON value from the request body into v.
// Unknown fields, trailing data and oversized bodies are rejected.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
