package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	users         map[model.UserID]*model.User
	providerIndex map[string]model.UserID
	sessions      map[string]*model.Session
	loginStates   map[string]*model.LoginState
	games         map[model.GameID]*model.Game
	roomCodeIndex map[model.RoomCode]model.GameID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:         make(map[model.UserID]*model.User),
		providerIndex: make(map[string]model.UserID),
		sessions:      make(map[string]*model.Session),
		loginStates:   make(map[string]*model.LoginState),
		games:         make(map[model.GameID]*model.Game),
		roomCodeIndex: make(map[model.RoomCode]model.GameID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providerIndex[user.ProviderID]; ok {
		return model.ErrUserExists
	}
	u := *user
	s.users[u.ID] = &u
	s.providerIndex[u.ProviderID] = u.ID
	return nil
}

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[u.ID] = &u
	s.providerIndex[u.ProviderID] = u.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) GetUserByProviderID(ctx context.Context, providerID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.providerIndex[providerID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := *session
	s.sessions[sess.TokenDigest] = &sess
	return nil
}

func (s *Storage) GetSession(ctx context.Context, tokenDigest string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[tokenDigest]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	sess := *session
	return &sess, nil
}

func (s *Storage) DeleteSession(ctx context.Context, tokenDigest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenDigest)
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for digest, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, digest)
			removed++
		}
	}
	return removed, nil
}

// Login state operations

func (s *Storage) SaveLoginState(ctx context.Context, state *model.LoginState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls := *state
	s.loginStates[ls.State] = &ls
	return nil
}

func (s *Storage) TakeLoginState(ctx context.Context, state string) (*model.LoginState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.loginStates[state]
	if !ok {
		return nil, model.ErrLoginStateNotFound
	}
	delete(s.loginStates, state)
	return ls, nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.roomCodeIndex[game.RoomCode]; taken {
		return model.ErrRoomCodeTaken
	}
	s.games[game.ID] = game.Clone()
	s.roomCodeIndex[game.RoomCode] = game.ID
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) GetGameByRoomCode(ctx context.Context, code model.RoomCode) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.roomCodeIndex[code]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roomCodeIndex[code]
	return ok, nil
}

func (s *Storage) UpdateRounds(ctx context.Context, id model.GameID, rounds []model.Round, updatedAt time.Time) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	game.Rounds = model.CloneRounds(rounds)
	game.UpdatedAt = updatedAt
	return game.Clone(), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}
