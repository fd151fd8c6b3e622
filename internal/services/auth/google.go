package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mcoot/partyquiz/internal/model"
)

// GoogleUserInfoURL is Google's OpenID Connect userinfo endpoint
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleConfig configures the Google identity provider.
// The endpoint URLs default to Google's and are only overridden in tests.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// GoogleProvider implements IdentityProvider for Google sign-in
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// Ensure GoogleProvider implements IdentityProvider
var _ IdentityProvider = (*GoogleProvider)(nil)

// NewGoogleProvider creates a GoogleProvider requesting the profile and email scopes
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = GoogleUserInfoURL
	}

	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "profile", "email"},
		},
		userInfoURL: userInfoURL,
	}
}

func (p *GoogleProvider) AuthCodeURL(state, codeVerifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(codeVerifier))
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code, codeVerifier string) (model.Identity, error) {
	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return model.Identity{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return model.Identity{}, err
	}
	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return model.Identity{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Identity{}, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return model.Identity{}, errors.New("userinfo has no subject")
	}

	identity := model.Identity{
		ProviderID:  info.Sub,
		DisplayName: info.Name,
		AvatarURL:   info.Picture,
	}
	// An unverified address is treated as no address
	if info.EmailVerified {
		identity.Email = info.Email
	}
	return identity, nil
}
