package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case CurrentUser:
		o.printUser(v)
	case CreatedGame:
		o.printCreatedGame(v)
	case Game:
		o.printGame(v)
	case GameRounds:
		o.printGameRounds(v)
	case []RoundType:
		o.printRoundTypes(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// UserProfile response type (matches API)
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// CurrentUser response type
type CurrentUser struct {
	Authenticated bool        `json:"authenticated"`
	User          UserProfile `json:"user"`
}

// CreatedGame response type
type CreatedGame struct {
	GameID   string `json:"gameId"`
	RoomCode string `json:"roomCode"`
}

// Round is one round of a game configuration
type Round struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Order       int      `json:"order"`
	Questions   []string `json:"questions"`
}

// Game response type
type Game struct {
	ID        string    `json:"id"`
	RoomCode  string    `json:"roomCode"`
	HostID    string    `json:"hostId"`
	Rounds    []Round   `json:"rounds"`
	Teams     []string  `json:"teams"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GameRounds response type
type GameRounds struct {
	GameID   string  `json:"gameId"`
	RoomCode string  `json:"roomCode"`
	Rounds   []Round `json:"rounds"`
}

// RoundType response type
type RoundType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u CurrentUser) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", u.User.DisplayName, u.User.ID)
	fmt.Fprintf(o.w, "Email: %s\n", u.User.Email)
}

func (o *Output) printCreatedGame(g CreatedGame) {
	fmt.Fprintf(o.w, "Game: %s\n", g.GameID)
	fmt.Fprintf(o.w, "Room Code: %s\n", g.RoomCode)
}

func (o *Output) printGame(g Game) {
	fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	fmt.Fprintf(o.w, "Room Code: %s\n", g.RoomCode)
	fmt.Fprintf(o.w, "Host: %s\n", g.HostID)
	if len(g.Rounds) == 0 {
		fmt.Fprintln(o.w, "Rounds: not configured")
		return
	}
	o.printRounds(g.Rounds)
}

func (o *Output) printGameRounds(g GameRounds) {
	fmt.Fprintf(o.w, "Game %s (%s) configured\n", g.GameID, g.RoomCode)
	o.printRounds(g.Rounds)
}

func (o *Output) printRounds(rounds []Round) {
	fmt.Fprintf(o.w, "Rounds (%d):\n", len(rounds))
	for _, r := range rounds {
		fmt.Fprintf(o.w, "  %d. %s [%s]\n", r.Order, r.Name, r.ID)
	}
}

func (o *Output) printRoundTypes(types []RoundType) {
	for _, rt := range types {
		fmt.Fprintf(o.w, "%s %-22s %s\n", rt.Emoji, rt.ID, rt.Name)
		fmt.Fprintf(o.w, "    %s\n", rt.Description)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
