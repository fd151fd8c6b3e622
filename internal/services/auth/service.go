package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/partyquiz/internal/dependencies/clock"
	"github.com/mcoot/partyquiz/internal/dependencies/random"
	"github.com/mcoot/partyquiz/internal/model"
	"github.com/mcoot/partyquiz/internal/storage"
)

// Errors
var (
	ErrInvalidSession   = errors.New("invalid or expired session")
	ErrLoginFailed      = errors.New("login failed")
	ErrProviderDisabled = errors.New("identity provider is not configured")
)

// Login failure reasons
const (
	ReasonMissingParams  = "missing_params"
	ReasonInvalidState   = "invalid_state"
	ReasonExpiredState   = "expired_state"
	ReasonProviderDenied = "provider_denied"
	ReasonExchangeFailed = "exchange_failed"
	ReasonMissingEmail   = "missing_email"
)

// LoginError describes why a login callback was rejected.
// It matches ErrLoginFailed with errors.Is.
type LoginError struct {
	Reason string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("login failed (%s)", e.Reason)
}

func (e *LoginError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrLoginFailed, e.Err}
	}
	return []error{ErrLoginFailed}
}

// Login is the result of a successful login
type Login struct {
	// Token is the raw session token; it is handed to the client and never stored
	Token   string
	Session *model.Session
	User    *model.User
}

// Config holds configuration for the auth service
type Config struct {
	SessionTTL    time.Duration
	LoginStateTTL time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionTTL:    24 * time.Hour,
		LoginStateTTL: 10 * time.Minute,
	}
}

// Service handles provider login and session management
type Service struct {
	storage  storage.Storage
	provider IdentityProvider
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger

	sessionTTL    time.Duration
	loginStateTTL time.Duration
}

// New creates a new auth Service. provider may be nil, which disables login
// while sessions keep working.
func New(
	storage storage.Storage,
	provider IdentityProvider,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Service {
	defaults := DefaultConfig()
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaults.SessionTTL
	}
	if cfg.LoginStateTTL <= 0 {
		cfg.LoginStateTTL = defaults.LoginStateTTL
	}
	return &Service{
		storage:       storage,
		provider:      provider,
		clock:         clock,
		random:        random,
		logger:        logger.With(slog.String("component", "auth-service")),
		sessionTTL:    cfg.SessionTTL,
		loginStateTTL: cfg.LoginStateTTL,
	}
}

// ProviderEnabled reports whether login through the identity provider is possible
func (s *Service) ProviderEnabled() bool {
	return s.provider != nil
}

// BeginLogin records a one-time login state and returns the provider URL to redirect to
func (s *Service) BeginLogin(ctx context.Context) (string, error) {
	if s.provider == nil {
		return "", ErrProviderDisabled
	}

	now := s.clock.Now()
	state := &model.LoginState{
		State:        s.random.Token(24),
		CodeVerifier: s.random.Token(32),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.loginStateTTL),
	}
	if err := s.storage.SaveLoginState(ctx, state); err != nil {
		return "", fmt.Errorf("save login state: %w", err)
	}

	return s.provider.AuthCodeURL(state.State, state.CodeVerifier), nil
}

// CompleteLogin handles the provider callback: it consumes the login state,
// exchanges the code, upserts the user and opens a session.
func (s *Service) CompleteLogin(ctx context.Context, state, code string) (*Login, error) {
	if s.provider == nil {
		return nil, ErrProviderDisabled
	}
	if state == "" || code == "" {
		return nil, &LoginError{Reason: ReasonMissingParams}
	}

	loginState, err := s.storage.TakeLoginState(ctx, state)
	if err != nil {
		if errors.Is(err, model.ErrLoginStateNotFound) {
			return nil, &LoginError{Reason: ReasonInvalidState}
		}
		return nil, fmt.Errorf("take login state: %w", err)
	}
	if !s.clock.Now().Before(loginState.ExpiresAt) {
		return nil, &LoginError{Reason: ReasonExpiredState}
	}

	identity, err := s.provider.Exchange(ctx, code, loginState.CodeVerifier)
	if err != nil {
		s.logger.Warn("provider exchange failed", slog.String("error", err.Error()))
		return nil, &LoginError{Reason: ReasonExchangeFailed, Err: err}
	}
	if identity.Email == "" {
		return nil, &LoginError{Reason: ReasonMissingEmail}
	}

	user, err := s.upsertUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	token, session, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.String("user_id", string(user.ID)),
	)
	return &Login{Token: token, Session: session, User: user}, nil
}

// upsertUser creates the user on first login and refreshes the profile afterwards
func (s *Service) upsertUser(ctx context.Context, identity model.Identity) (*model.User, error) {
	user, err := s.storage.GetUserByProviderID(ctx, identity.ProviderID)
	if errors.Is(err, model.ErrUserNotFound) {
		user, err = s.createUser(ctx, identity)
		if !errors.Is(err, model.ErrUserExists) {
			return user, err
		}
		// A concurrent login created the user first
		user, err = s.storage.GetUserByProviderID(ctx, identity.ProviderID)
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if !user.Refresh(identity) {
		return user, nil
	}
	user.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (s *Service) createUser(ctx context.Context, identity model.Identity) (*model.User, error) {
	now := s.clock.Now()
	user := &model.User{
		ID:         model.UserID(s.random.UUID()),
		ProviderID: identity.ProviderID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	user.Refresh(identity)

	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", slog.String("user_id", string(user.ID)))
	return user, nil
}

// CreateSession opens a session for userID and returns its raw token
func (s *Service) CreateSession(ctx context.Context, userID model.UserID) (string, *model.Session, error) {
	token := s.random.Token(sessionTokenBytes)
	now := s.clock.Now()

	session := &model.Session{
		TokenDigest: TokenDigest(token),
		UserID:      userID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if err := s.storage.SaveSession(ctx, session); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}
	return token, session, nil
}

// ValidateSession resolves a session token to its user.
// Expired sessions are deleted on sight.
func (s *Service) ValidateSession(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	digest := TokenDigest(token)

	session, err := s.storage.GetSession(ctx, digest)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.clock.Now()) {
		if err := s.storage.DeleteSession(ctx, digest); err != nil {
			s.logger.Warn("failed to delete expired session", slog.String("error", err.Error()))
		}
		return nil, ErrInvalidSession
	}

	user, err := s.storage.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Logout ends the session for token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.storage.DeleteSession(ctx, TokenDigest(token))
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions(ctx context.Context) (int, error) {
	removed, err := s.storage.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", slog.Int("count", removed))
	}
	return removed, nil
}

// RunSessionJanitor calls CleanExpiredSessions every interval until ctx is done
func (s *Service) RunSessionJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CleanExpiredSessions(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("failed to clean expired sessions", slog.String("error", err.Error()))
			}
		}
	}
}
