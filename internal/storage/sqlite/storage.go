package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/storage"
)

// Config holds SQLite settings
type Config struct {
	// Path is the database file, or ":memory:"
	Path string
}

// DefaultConfig returns sensible defaults for SQLite configuration
func DefaultConfig() Config {
	return Config{Path: "partyquiz.db"}
}

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sqlx.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New opens the database and applies migrations
func New(cfg Config) (*Storage, error) {
	db, err := sqlx.Connect("sqlite3", cfg.Path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}

	// One connection serialises writers, which SQLite requires anyway
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Rows

type userRow struct {
	ID          string    `db:"id"`
	ProviderID  string    `db:"provider_id"`
	DisplayName string    `db:"display_name"`
	Email       string    `db:"email"`
	AvatarURL   string    `db:"avatar_url"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func newUserRow(u *model.User) userRow {
	return userRow{
		ID:          string(u.ID),
		ProviderID:  u.ProviderID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt.UTC(),
		UpdatedAt:   u.UpdatedAt.UTC(),
	}
}

func (r userRow) toModel() *model.User {
	return &model.User{
		ID:          model.UserID(r.ID),
		ProviderID:  r.ProviderID,
		DisplayName: r.DisplayName,
		Email:       r.Email,
		AvatarURL:   r.AvatarURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type sessionRow struct {
	TokenDigest string    `db:"token_digest"`
	UserID      string    `db:"user_id"`
	CreatedAt   time.Time `db:"created_at"`
	ExpiresAt   time.Time `db:"expires_at"`
}

type loginStateRow struct {
	State        string    `db:"state"`
	CodeVerifier string    `db:"code_verifier"`
	CreatedAt    time.Time `db:"created_at"`
	ExpiresAt    time.Time `db:"expires_at"`
}

type gameRow struct {
	ID        string    `db:"id"`
	RoomCode  string    `db:"room_code"`
	HostID    string    `db:"host_id"`
	Rounds    string    `db:"rounds"`
	Teams     string    `db:"teams"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r gameRow) toModel() (*model.Game, error) {
	game := &model.Game{
		ID:        model.GameID(r.ID),
		RoomCode:  model.RoomCode(r.RoomCode),
		HostID:    model.UserID(r.HostID),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Rounds), &game.Rounds); err != nil {
		return nil, fmt.Errorf("decode rounds of game %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Teams), &game.Teams); err != nil {
		return nil, fmt.Errorf("decode teams of game %s: %w", r.ID, err)
	}
	game.Normalize()
	return game, nil
}

// User operations

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	const q = `INSERT INTO users (id, provider_id, display_name, email, avatar_url, created_at, updated_at)
VALUES (:id, :provider_id, :display_name, :email, :avatar_url, :created_at, :updated_at)
ON CONFLICT (provider_id) DO NOTHING`

	res, err := s.db.NamedExecContext(ctx, q, newUserRow(user))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrUserExists
	}
	return nil
}

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	const q = `INSERT INTO users (id, provider_id, display_name, email, avatar_url, created_at, updated_at)
VALUES (:id, :provider_id, :display_name, :email, :avatar_url, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE SET
  display_name = excluded.display_name,
  email = excluded.email,
  avatar_url = excluded.avatar_url,
  updated_at = excluded.updated_at`

	_, err := s.db.NamedExecContext(ctx, q, newUserRow(user))
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.getUser(ctx, `SELECT * FROM users WHERE id = ?`, string(id))
}

func (s *Storage) GetUserByProviderID(ctx context.Context, providerID string) (*model.User, error) {
	return s.getUser(ctx, `SELECT * FROM users WHERE provider_id = ?`, providerID)
}

func (s *Storage) getUser(ctx context.Context, query string, arg string) (*model.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (token_digest, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.TokenDigest, string(session.UserID), session.CreatedAt.UTC(), session.ExpiresAt.UTC())
	return err
}

func (s *Storage) GetSession(ctx context.Context, tokenDigest string) (*model.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE token_digest = ?`, tokenDigest)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return &model.Session{
		TokenDigest: row.TokenDigest,
		UserID:      model.UserID(row.UserID),
		CreatedAt:   row.CreatedAt,
		ExpiresAt:   row.ExpiresAt,
	}, nil
}

func (s *Storage) DeleteSession(ctx context.Context, tokenDigest string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_digest = ?`, tokenDigest)
	return err
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Login state operations

func (s *Storage) SaveLoginState(ctx context.Context, state *model.LoginState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO login_states (state, code_verifier, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		state.State, state.CodeVerifier, state.CreatedAt.UTC(), state.ExpiresAt.UTC())
	return err
}

// TakeLoginState reads and deletes the row in one transaction
func (s *Storage) TakeLoginState(ctx context.Context, state string) (*model.LoginState, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var row loginStateRow
	if err := tx.GetContext(ctx, &row, `SELECT * FROM login_states WHERE state = ?`, state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrLoginStateNotFound
		}
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM login_states WHERE state = ?`, state); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.LoginState{
		State:        row.State,
		CodeVerifier: row.CodeVerifier,
		CreatedAt:    row.CreatedAt,
		ExpiresAt:    row.ExpiresAt,
	}, nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	g := game.Clone()
	g.Normalize()
	rounds, err := json.Marshal(g.Rounds)
	if err != nil {
		return err
	}
	teams, err := json.Marshal(g.Teams)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (id, room_code, host_id, rounds, teams, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(g.ID), string(g.RoomCode), string(g.HostID), string(rounds), string(teams), g.CreatedAt.UTC(), g.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return model.ErrRoomCodeTaken
	}
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return s.getGame(ctx, s.db, `SELECT * FROM games WHERE id = ?`, string(id))
}

func (s *Storage) GetGameByRoomCode(ctx context.Context, code model.RoomCode) (*model.Game, error) {
	return s.getGame(ctx, s.db, `SELECT * FROM games WHERE room_code = ?`, string(code))
}

func (s *Storage) getGame(ctx context.Context, q sqlx.QueryerContext, query string, arg string) (*model.Game, error) {
	var row gameRow
	if err := sqlx.GetContext(ctx, q, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}
	return row.toModel()
}

func (s *Storage) RoomCodeExists(ctx context.Context, code model.RoomCode) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM games WHERE room_code = ?)`, string(code))
	return exists, err
}

func (s *Storage) UpdateRounds(ctx context.Context, id model.GameID, rounds []model.Round, updatedAt time.Time) (*model.Game, error) {
	data, err := json.Marshal(model.CloneRounds(rounds))
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE games SET rounds = ?, updated_at = ? WHERE id = ?`,
		string(data), updatedAt.UTC(), string(id))
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, model.ErrGameNotFound
	}

	game, err := s.getGame(ctx, tx, `SELECT * FROM games WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return game, nil
}
