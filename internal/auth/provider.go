// Package auth issues and checks admin sessions.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/routes"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

var ErrNoSession = errors.New("no user ID in context")

type AuthProvider interface {
	// WithHeaderAuthorization attaches the user of a valid session to the request
	// context. Requests without one pass through anonymously.
	WithHeaderAuthorization() func(http.Handler) http.Handler

	GetUserIdFromSession(r *http.Request) (model.UserID, error)

	// EnforceUserAndGetId answers 401 and returns an error when there is no session.
	EnforceUserAndGetId(w http.ResponseWriter, r *http.Request) (model.UserID, error)
}

func userFromContext(r *http.Request) (model.UserID, error) {
	userID, ok := UserIdFromContext(r.Context())
	if !ok || userID == "" {
		return "", ErrNoSession
	}
	return userID, nil
}

func enforce(p AuthProvider, w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	userID, err := p.GetUserIdFromSession(r)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Unauthorized access attempt")
		routes.WriteError(w, http.StatusUnauthorized, config.ErrUnauthorized)
		return "", err
	}
	return userID, nil
}

// NoAuthProvider treats every request as the configured admin. Development only.
type NoAuthProvider struct {
	userID model.UserID
}

func NewNoAuthProvider(userID model.UserID) *NoAuthProvider {
	return &NoAuthProvider{userID: userID}
}

func (p *NoAuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithUserId(r.Context(), p.userID)))
		})
	}
}

func (p *NoAuthProvider) GetUserIdFromSession(r *http.Request) (model.UserID, error) {
	return userFromContext(r)
}

func (p *NoAuthProvider) EnforceUserAndGetId(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforce(p, w, r)
}

// NewProvider builds the configured provider and registers its routes on mux.
func NewProvider(cfg config.AuthConfig, secrets config.Secrets, mux *http.ServeMux) (AuthProvider, error) {
	if !cfg.Enabled {
		authLogger.Warn().Msg("Authentication disabled, every request is treated as admin")
		return NewNoAuthProvider(model.UserID(cfg.UserID)), nil
	}

	switch cfg.Type {
	case config.AuthClerk:
		if secrets.ClerkKey == "" {
			return nil, fmt.Errorf("%s is required for clerk authentication", config.EnvClerkKey)
		}
		return NewClerkAuthProvider(secrets.ClerkKey, cfg.ClerkAdminIDs), nil

	case config.AuthEd25519:
		pubKey := secrets.Ed25519PubKey
		if pubKey == "" {
			data, err := os.ReadFile(cfg.PublicKeyPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read public key: %w", err)
			}
			pubKey = string(data)
		}
		if secrets.JWTSecret == "" {
			return nil, fmt.Errorf("%s is required to sign session tokens", config.EnvJWTSecret)
		}

		tokens := NewTokenMaker(secrets.JWTSecret, cfg.TokenTTL)
		provider, err := NewEd25519AuthProvider(pubKey, config.HSignature, model.UserID(cfg.UserID), tokens)
		if err != nil {
			return nil, err
		}
		RegisterEd25519AuthRoutes(mux, provider)
		return provider, nil

	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}
}
