package model

import "fmt"

// RoundsPerGame is the number of rounds a configured game has
const RoundsPerGame = 5

// Round is one configured mini-round of a game
type Round struct {
	ID          string `json:"id"` // round type id, see RoundTypes
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	// Questions is reserved for later population and must be empty
	Questions []string `json:"questions"`
}

// RoundType describes one of the selectable mini-round formats
type RoundType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

var roundTypes = []RoundType{
	{ID: "clue-five", Name: "Clue-Five", Description: "5 clues, points decrease with each revealed clue", Emoji: "🔍"},
	{ID: "rhyme-time", Name: "Rhyme Time", Description: `"Stinky Pinky" style two-word rhymes`, Emoji: "🎵"},
	{ID: "answer-smash", Name: "Answer Smash", Description: "Combine two pictures into one answer", Emoji: "🖼️"},
	{ID: "ridiculous-charades", Name: "Ridiculous Charades", Description: "Acting round limited to Christmas props", Emoji: "🎭"},
	{ID: "sound-round", Name: "Sound Round", Description: "10-second reversed festive song snippets", Emoji: "🎧"},
	{ID: "broken-karaoke", Name: "Broken Karaoke", Description: "Finish the lyric with the last word missing", Emoji: "🎤"},
}

// RoundTypes returns the catalogue of selectable round types
func RoundTypes() []RoundType {
	out := make([]RoundType, len(roundTypes))
	copy(out, roundTypes)
	return out
}

// LookupRoundType returns the round type with the given id
func LookupRoundType(id string) (RoundType, bool) {
	for _, rt := range roundTypes {
		if rt.ID == id {
			return rt, true
		}
	}
	return RoundType{}, false
}

// ValidateRounds checks a full rounds configuration.
// Every failure wraps ErrInvalidRounds.
func ValidateRounds(rounds []Round) error {
	if len(rounds) != RoundsPerGame {
		return fmt.Errorf("%w: must provide exactly %d rounds, got %d", ErrInvalidRounds, RoundsPerGame, len(rounds))
	}

	seenTypes := make(map[string]bool, len(rounds))
	seenOrders := make(map[int]bool, len(rounds))
	for i, r := range rounds {
		if _, ok := LookupRoundType(r.ID); !ok {
			return fmt.Errorf("%w: round %d has unknown type %q", ErrInvalidRounds, i+1, r.ID)
		}
		if seenTypes[r.ID] {
			return fmt.Errorf("%w: round type %q chosen more than once", ErrInvalidRounds, r.ID)
		}
		seenTypes[r.ID] = true

		if r.Name == "" {
			return fmt.Errorf("%w: round %d has no name", ErrInvalidRounds, i+1)
		}
		if r.Order < 1 || r.Order > RoundsPerGame {
			return fmt.Errorf("%w: round %d has order %d, want 1-%d", ErrInvalidRounds, i+1, r.Order, RoundsPerGame)
		}
		if seenOrders[r.Order] {
			return fmt.Errorf("%w: order %d used more than once", ErrInvalidRounds, r.Order)
		}
		seenOrders[r.Order] = true

		if len(r.Questions) > 0 {
			return fmt.Errorf("%w: round %d has questions, which cannot be set yet", ErrInvalidRounds, i+1)
		}
	}
	return nil
}
