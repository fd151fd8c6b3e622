package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/partyquiz/internal/cli"
	"github.com/mcoot/partyquiz/internal/factory"
	"github.com/mcoot/partyquiz/internal/model"
)

// cliRunner runs pqctl commands in-process against a test server
type cliRunner struct {
	serverURL string
	tokenFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	t.Setenv("PQCTL_TOKEN", "")
	return &cliRunner{
		serverURL: serverURL,
		tokenFile: filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) args(args []string) []string {
	return append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(r.args(args))
	err := cmd.Execute()
	return out.String(), err
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testServer is a full app behind an httptest server
type testServer struct {
	app *factory.TestApp
	url string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	server := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		app.HubManager.Close()
		server.Close()
		_ = app.Close()
	})

	return &testServer{app: app, url: server.URL}
}

// newSession creates a user directly in storage and returns a session token for it
func (ts *testServer) newSession(t *testing.T, id, name string) string {
	t.Helper()

	now := ts.app.MockClock.Now()
	user := &model.User{
		ID:          model.UserID(id),
		ProviderID:  "google-" + id,
		DisplayName: name,
		Email:       id + "@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, ts.app.Storage.SaveUser(t.Context(), user))

	token, _, err := ts.app.AuthService.CreateSession(t.Context(), user.ID)
	require.NoError(t, err)
	return token
}

// Response types for JSON parsing
type healthResponse struct {
	Status string `json:"status"`
}

type userResponse struct {
	Authenticated bool `json:"authenticated"`
	User          struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
}

type createdResponse struct {
	GameID   string `json:"gameId"`
	RoomCode string `json:"roomCode"`
}

type roundResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type gameResponse struct {
	ID       string          `json:"id"`
	RoomCode string          `json:"roomCode"`
	HostID   string          `json:"hostId"`
	Rounds   []roundResponse `json:"rounds"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	runner := newCLIRunner(t, ts.url)

	output, err := runner.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_RoundTypes(t *testing.T) {
	ts := startTestServer(t)
	runner := newCLIRunner(t, ts.url)

	output, err := runner.run("round-types")
	require.NoError(t, err, "output: %s", output)

	var types []struct {
		ID    string `json:"id"`
		Emoji string `json:"emoji"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &types))
	assert.Len(t, types, 6)
}

func TestCLI_LoginAndLogout(t *testing.T) {
	ts := startTestServer(t)
	runner := newCLIRunner(t, ts.url)
	token := ts.newSession(t, "alice", "Alice")

	// Bad token is not saved
	output, err := runner.run("login", "not-a-token")
	require.Error(t, err, "output: %s", output)
	_, statErr := os.Stat(runner.tokenFile)
	assert.True(t, os.IsNotExist(statErr))

	output, err = runner.run("login", token)
	require.NoError(t, err, "output: %s", output)

	// The saved token is used by later commands
	output, err = runner.run("whoami")
	require.NoError(t, err, "output: %s", output)
	var me userResponse
	require.NoError(t, json.Unmarshal([]byte(output), &me))
	assert.True(t, me.Authenticated)
	assert.Equal(t, "Alice", me.User.DisplayName)

	output, err = runner.run("logout")
	require.NoError(t, err, "output: %s", output)
	var msg messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msg))
	assert.Equal(t, "Logged out", msg.Message)

	// The session is gone server-side and locally
	_, err = ts.app.AuthService.ValidateSession(t.Context(), token)
	assert.Error(t, err)
	output, err = runner.run("whoami")
	assert.Error(t, err, "output: %s", output)
}

func TestCLI_UnauthenticatedGameCommandFails(t *testing.T) {
	ts := startTestServer(t)
	runner := newCLIRunner(t, ts.url)

	output, err := runner.run("game", "create")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")
}

func TestCLI_HostAndConfigureGame(t *testing.T) {
	ts := startTestServer(t)
	runner := newCLIRunner(t, ts.url)
	token := ts.newSession(t, "host", "Host")

	_, err := runner.run("login", token)
	require.NoError(t, err)

	// Create
	ts.app.MockRandom.QueueString("CLI001")
	output, err := runner.run("game", "create")
	require.NoError(t, err, "output: %s", output)
	var created createdResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))
	assert.Equal(t, "CLI001", created.RoomCode)

	// Get unconfigured
	output, err = runner.run("game", "get", created.GameID)
	require.NoError(t, err, "output: %s", output)
	var game gameResponse
	require.NoError(t, json.Unmarshal([]byte(output), &game))
	assert.Equal(t, "host", game.HostID)
	assert.Empty(t, game.Rounds)

	// Too few rounds are rejected by the server
	output, err = runner.run("game", "rounds", created.GameID, "--types", "clue-five,rhyme-time")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_ROUNDS")

	// Unknown types are caught before the request
	_, err = runner.run("game", "rounds", created.GameID, "--types", "clue-five,trivia")
	require.Error(t, err)

	// Configure from the catalogue
	output, err = runner.run("game", "rounds", created.GameID,
		"--types", "sound-round,clue-five,rhyme-time,answer-smash,broken-karaoke")
	require.NoError(t, err, "output: %s", output)
	var configured struct {
		GameID string          `json:"gameId"`
		Rounds []roundResponse `json:"rounds"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &configured))
	require.Len(t, configured.Rounds, 5)
	assert.Equal(t, "sound-round", configured.Rounds[0].ID)
	assert.Equal(t, 1, configured.Rounds[0].Order)
	assert.Equal(t, "broken-karaoke", configured.Rounds[4].ID)
	assert.Equal(t, 5, configured.Rounds[4].Order)

	// Configure from a file
	rounds := `[
		{"id":"ridiculous-charades","name":"Ridiculous Charades","description":"Act it out","order":1,"questions":[]},
		{"id":"clue-five","name":"Clue Five","description":"d","order":2,"questions":[]},
		{"id":"rhyme-time","name":"Rhyme Time","description":"d","order":3,"questions":[]},
		{"id":"answer-smash","name":"Answer Smash","description":"d","order":4,"questions":[]},
		{"id":"sound-round","name":"Sound Round","description":"d","order":5,"questions":[]}
	]`
	path := filepath.Join(t.TempDir(), "rounds.json")
	require.NoError(t, os.WriteFile(path, []byte(rounds), 0o600))

	output, err = runner.run("game", "rounds", created.GameID, "--file", path)
	require.NoError(t, err, "output: %s", output)

	output, err = runner.run("game", "get", created.GameID)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &game))
	require.Len(t, game.Rounds, 5)
	assert.Equal(t, "ridiculous-charades", game.Rounds[0].ID)
}

func TestCLI_NonHostCannotConfigure(t *testing.T) {
	ts := startTestServer(t)
	host := newCLIRunner(t, ts.url)
	guest := newCLIRunner(t, ts.url)

	_, err := host.run("login", ts.newSession(t, "host", "Host"))
	require.NoError(t, err)
	_, err = guest.run("login", ts.newSession(t, "guest", "Guest"))
	require.NoError(t, err)

	ts.app.MockRandom.QueueString("CLI002")
	output, err := host.run("game", "create")
	require.NoError(t, err, "output: %s", output)
	var created createdResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))

	output, err = guest.run("game", "get", created.GameID)
	require.Error(t, err)
	assert.Contains(t, output, "NOT_HOST")
}

func TestCLI_EventsStream(t *testing.T) {
	ts := startTestServer(t)
	host := newCLIRunner(t, ts.url)

	_, err := host.run("login", ts.newSession(t, "host", "Host"))
	require.NoError(t, err)

	ts.app.MockRandom.QueueString("CLI003")
	output, err := host.run("game", "create")
	require.NoError(t, err, "output: %s", output)
	var created createdResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))

	// Unknown rooms are refused
	_, err = host.run("events", "NOROOM")
	require.Error(t, err)

	// Stream in the background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events syncBuffer
	done := make(chan error, 1)
	go func() {
		cmd := cli.NewRootCmd()
		cmd.SetOut(&events)
		cmd.SetErr(&events)
		cmd.SetArgs(host.args([]string{"events", "cli003", "--json"}))
		done <- cmd.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(events.String(), `"event":"connected"`)
	}, 2*time.Second, 10*time.Millisecond)

	output, err = host.run("game", "rounds", created.GameID,
		"--types", "clue-five,rhyme-time,answer-smash,sound-round,broken-karaoke")
	require.NoError(t, err, "output: %s", output)

	require.Eventually(t, func() bool {
		return strings.Contains(events.String(), `"event":"gameConfigUpdated"`)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("events command did not stop after cancel")
	}

	// Each event is one JSON line
	for _, line := range strings.Split(strings.TrimSpace(events.String()), "\n") {
		var evt cli.SSEEvent
		assert.NoError(t, json.Unmarshal([]byte(line), &evt), "line: %s", line)
	}
}
