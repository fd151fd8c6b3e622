package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mcoot/partyquiz/internal/api/apierr"
	"github.com/mcoot/partyquiz/internal/api/middleware"
	"github.com/mcoot/partyquiz/internal/api/response"
	"github.com/mcoot/partyquiz/internal/services/auth"
)

// AuthConfig holds the cookie and redirect settings for the login flow
type AuthConfig struct {
	// SuccessURL is where the browser lands after a successful login
	SuccessURL   string
	CookieSecure bool
}

// AuthHandler handles the Google login flow and session endpoints
type AuthHandler struct {
	authService *auth.Service
	config      AuthConfig
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, config AuthConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      config,
		logger:      logger,
	}
}

// Google handles GET /auth/google
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := h.authService.BeginLogin(r.Context())
	if err != nil {
		if errors.Is(err, auth.ErrProviderDisabled) {
			h.logger.Error("google login requested but GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET are not set")
		} else {
			h.logger.Error("failed to begin login", slog.String("error", err.Error()))
		}
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// Callback handles GET /auth/google/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		h.logger.Warn("provider denied login", slog.String("provider_error", providerErr))
		h.failure(w, r, auth.ReasonProviderDenied)
		return
	}

	login, err := h.authService.CompleteLogin(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		var loginErr *auth.LoginError
		if errors.As(err, &loginErr) {
			h.logger.Warn("login rejected", slog.String("reason", loginErr.Reason))
			h.failure(w, r, loginErr.Reason)
			return
		}
		h.logger.Error("failed to complete login", slog.String("error", err.Error()))
		h.failure(w, r, "")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    login.Token,
		Path:     "/",
		Expires:  login.Session.ExpiresAt,
		MaxAge:   int(login.Session.ExpiresAt.Sub(login.Session.CreatedAt).Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.config.SuccessURL, http.StatusFound)
}

func (h *AuthHandler) failure(w http.ResponseWriter, r *http.Request, reason string) {
	target := "/auth/failure"
	if reason != "" {
		target += "?" + url.Values{"reason": {reason}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Failure handles GET /auth/failure
func (h *AuthHandler) Failure(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusUnauthorized, response.AuthFailure{
		Error:   "Authentication failed",
		Message: "OAuth authentication with Google failed. Check server logs for details.",
		Reason:  r.URL.Query().Get("reason"),
	})
}

// Logout handles GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.ExtractToken(r)); err != nil {
		h.logger.Error("failed to delete session", slog.String("error", err.Error()))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// User handles GET /user
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	response.JSON(w, http.StatusOK, response.CurrentUser{
		Authenticated: true,
		User:          response.UserProfileFromModel(user),
	})
}

// Dashboard handles GET /dashboard; anonymous visitors are sent home
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.ValidateSession(r.Context(), middleware.ExtractToken(r))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidSession) {
			h.logger.Error("failed to validate session", slog.String("error", err.Error()))
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	response.JSON(w, http.StatusOK, response.Dashboard{
		Message: "Welcome " + user.DisplayName + "!",
		User:    response.UserProfileFromModel(user),
		Links: map[string]string{
			"profile":    "/user",
			"createGame": "/api/games",
			"logout":     "/logout",
		},
	})
}
