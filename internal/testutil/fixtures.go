package testutil

import "github.com/mcoot/partyquiz/internal/model"

// DefaultRoundTypes is a valid selection of round types, in play order
var DefaultRoundTypes = []string{"clue-five", "rhyme-time", "answer-smash", "sound-round", "broken-karaoke"}

// Rounds builds rounds for the given round type ids, ordered 1..n.
// Unknown ids produce rounds without a name.
func Rounds(typeIDs ...string) []model.Round {
	rounds := make([]model.Round, len(typeIDs))
	for i, id := range typeIDs {
		rt, _ := model.LookupRoundType(id)
		rounds[i] = model.Round{
			ID:          id,
			Name:        rt.Name,
			Description: rt.Description,
			Order:       i + 1,
			Questions:   []string{},
		}
	}
	return rounds
}

// ValidRounds returns a complete, valid rounds configuration
func ValidRounds() []model.Round {
	return Rounds(DefaultRoundTypes...)
}
