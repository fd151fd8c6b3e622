package mocks

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"golang.org/x/oauth2"

	"github.com/mcoot/partyquiz/internal/model"
)

// ErrUnknownCode is returned by MockIdentityProvider for codes it was not given
var ErrUnknownCode = errors.New("mock provider: unknown authorization code")

// MockIdentityProvider is an in-process identity provider for testing.
// It hands out identities registered against authorization codes.
type MockIdentityProvider struct {
	mu sync.Mutex

	// BaseURL is the authorization URL returned by AuthCodeURL
	BaseURL string

	identities map[string]model.Identity

	// LastVerifier is the code verifier passed to the latest Exchange
	LastVerifier string
	// ExchangeErr, when set, fails every Exchange
	ExchangeErr error
}

// NewMockIdentityProvider creates a MockIdentityProvider
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		BaseURL:    "https://accounts.example.com/authorize",
		identities: make(map[string]model.Identity),
	}
}

// AddIdentity makes code exchange for identity
func (p *MockIdentityProvider) AddIdentity(code string, identity model.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identities[code] = identity
}

// AuthCodeURL returns BaseURL with the state and S256 challenge as query parameters
func (p *MockIdentityProvider) AuthCodeURL(state, codeVerifier string) string {
	q := url.Values{}
	q.Set("state", state)
	q.Set("code_challenge", oauth2.S256ChallengeFromVerifier(codeVerifier))
	q.Set("code_challenge_method", "S256")
	return p.BaseURL + "?" + q.Encode()
}

// Exchange returns the identity registered for code
func (p *MockIdentityProvider) Exchange(ctx context.Context, code, codeVerifier string) (model.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LastVerifier = codeVerifier
	if p.ExchangeErr != nil {
		return model.Identity{}, p.ExchangeErr
	}
	identity, ok := p.identities[code]
	if !ok {
		return model.Identity{}, ErrUnknownCode
	}
	return identity, nil
}
