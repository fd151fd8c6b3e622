package auth

import (
	"context"

	"github.com/mcoot/partyquiz/internal/model"
)

// IdentityProvider is an external OAuth identity provider
type IdentityProvider interface {
	// AuthCodeURL returns the provider URL the user is redirected to.
	// state is echoed back on the callback; codeVerifier is sent as its S256 challenge.
	AuthCodeURL(state, codeVerifier string) string

	// Exchange trades an authorization code for the user's verified identity
	Exchange(ctx context.Context, code, codeVerifier string) (model.Identity, error)
}
