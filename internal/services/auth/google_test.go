package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGoogle serves the token and userinfo endpoints
func fakeGoogle(t *testing.T, userInfo map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("code") != "good-code" || r.PostForm.Get("code_verifier") != "verifier-1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userInfo)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestGoogleProvider(server *httptest.Server) *GoogleProvider {
	return NewGoogleProvider(GoogleConfig{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURL:  "http://localhost:5001/auth/google/callback",
		AuthURL:      server.URL + "/authorize",
		TokenURL:     server.URL + "/token",
		UserInfoURL:  server.URL + "/userinfo",
	})
}

func TestGoogleAuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{
		ClientID:    "client-1",
		RedirectURL: "http://localhost:5001/auth/google/callback",
	})

	u, err := url.Parse(p.AuthCodeURL("state-1", "verifier-1"))
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", u.Host)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://localhost:5001/auth/google/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
}

func TestGoogleExchange(t *testing.T) {
	server := fakeGoogle(t, map[string]any{
		"sub":            "1234567890",
		"name":           "Alice",
		"email":          "alice@example.com",
		"email_verified": true,
		"picture":        "https://example.com/alice.png",
	})
	p := newTestGoogleProvider(server)

	identity, err := p.Exchange(context.Background(), "good-code", "verifier-1")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", identity.ProviderID)
	assert.Equal(t, "Alice", identity.DisplayName)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, "https://example.com/alice.png", identity.AvatarURL)
}

func TestGoogleExchangeDropsUnverifiedEmail(t *testing.T) {
	server := fakeGoogle(t, map[string]any{
		"sub":            "1234567890",
		"name":           "Alice",
		"email":          "alice@example.com",
		"email_verified": false,
	})
	p := newTestGoogleProvider(server)

	identity, err := p.Exchange(context.Background(), "good-code", "verifier-1")
	require.NoError(t, err)
	assert.Empty(t, identity.Email)
}

func TestGoogleExchangeRejectedCode(t *testing.T) {
	server := fakeGoogle(t, map[string]any{"sub": "1"})
	p := newTestGoogleProvider(server)

	_, err := p.Exchange(context.Background(), "bad-code", "verifier-1")
	assert.Error(t, err)
}

func TestGoogleExchangeWrongVerifier(t *testing.T) {
	server := fakeGoogle(t, map[string]any{"sub": "1"})
	p := newTestGoogleProvider(server)

	_, err := p.Exchange(context.Background(), "good-code", "other-verifier")
	assert.Error(t, err)
}

func TestGoogleExchangeMissingSubject(t *testing.T) {
	server := fakeGoogle(t, map[string]any{"name": "Nobody"})
	p := newTestGoogleProvider(server)

	_, err := p.Exchange(context.Background(), "good-code", "verifier-1")
	assert.Error(t, err)
}
