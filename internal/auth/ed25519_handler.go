package auth

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/routes"
)

type ChallengeResponse struct {
	Challenge string `json:"challenge"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Ed25519ChallengeHandler serves the current challenge on GET and a fresh one on POST.
func Ed25519ChallengeHandler(provider *Ed25519AuthProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := zerolog.Ctx(r.Context())
		switch r.Method {
		case http.MethodGet:
		case http.MethodPost:
			if err := provider.RefreshChallenge(); err != nil {
				l.Error().Err(err).Msg("Failed to refresh challenge")
				routes.WriteError(w, http.StatusInternalServerError, config.ErrRefreshChallenge)
				return
			}
		default:
			routes.WriteError(w, http.StatusMethodNotAllowed, config.HTTPErrMethodNotAllowed)
			return
		}

		routes.WriteJSON(w, http.StatusOK, ChallengeResponse{
			Challenge: base64.StdEncoding.EncodeToString(provider.GetChallenge()),
		})
	}
}

// Ed25519VerifyHandler exchanges a signed challenge for a session token.
func Ed25519VerifyHandler(provider *Ed25519AuthProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := zerolog.Ctx(r.Context())
		if r.Method != http.MethodPost {
			routes.WriteError(w, http.StatusMethodNotAllowed, config.HTTPErrMethodNotAllowed)
			return
		}

		header := r.Header.Get(provider.headerName)
		if header == "" {
			routes.WriteError(w, http.StatusUnauthorized, config.ErrAuthHeaderRequired)
			return
		}

		signature, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header))
		if err != nil {
			l.Warn().Err(err).Msg("Failed to decode signature")
			routes.WriteError(w, http.StatusUnauthorized, config.ErrInvalidSignatureFormat)
			return
		}

		if !provider.Verify(signature) {
			l.Warn().Msg("Signature verification failed")
			routes.WriteError(w, http.StatusUnauthorized, config.ErrInvalidSignature)
			return
		}

		token, claims, err := provider.tokens.Issue(provider.userId)
		if err != nil {
			l.Error().Err(err).Msg("Failed to issue session token")
			routes.WriteError(w, http.StatusInternalServerError, config.ErrIssueToken)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     provider.cookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
			Secure:   r.TLS != nil,
			Expires:  claims.ExpiresAt.Time,
		})

		l.Info().Str("user_id", string(provider.userId)).Msg("Admin session issued")
		routes.WriteJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time})
	}
}
