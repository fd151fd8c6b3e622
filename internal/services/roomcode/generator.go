package roomcode

import (
	"strings"

	"github.com/mcoot/partyquiz/internal/dependencies/random"
	"github.com/mcoot/partyquiz/internal/model"
)

const (
	// Length is the length of generated room codes
	Length = 6
	// Alphabet is the characters used in room codes
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator produces candidate room codes. It knows nothing about which
// codes are already in use; uniqueness is the caller's job.
type Generator struct {
	random random.Random
}

// NewGenerator creates a Generator drawing from r
func NewGenerator(r random.Random) *Generator {
	return &Generator{random: r}
}

// Generate returns a new candidate room code
func (g *Generator) Generate() model.RoomCode {
	return model.RoomCode(g.random.String(Length, Alphabet))
}

// Valid reports whether code is well formed
func Valid(code model.RoomCode) bool {
	if len(code) != Length {
		return false
	}
	for _, c := range []byte(code) {
		if strings.IndexByte(Alphabet, c) < 0 {
			return false
		}
	}
	return true
}

// Normalize canonicalises user-entered codes, e.g. " abc123" -> "ABC123"
func Normalize(code string) model.RoomCode {
	return model.RoomCode(strings.ToUpper(strings.TrimSpace(code)))
}
