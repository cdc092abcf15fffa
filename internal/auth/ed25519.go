package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/model"
)

// Ed25519AuthProvider trades a signature over a server challenge for a session token.
type Ed25519AuthProvider struct {
	publicKey  ed25519.PublicKey
	headerName string
	cookieName string
	userId     model.UserID
	tokens     *TokenMaker

	mu        sync.RWMutex
	challenge []byte
}

func ParsePublicKey(publicKeyPEM string) (ed25519.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	publicKey, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("key is not an Ed25519 public key")
	}
	return publicKey, nil
}

func NewEd25519AuthProvider(publicKeyPEM, headerName string, userId model.UserID, tokens *TokenMaker) (*Ed25519AuthProvider, error) {
	publicKey, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	p := &Ed25519AuthProvider{
		publicKey:  publicKey,
		headerName: headerName,
		cookieName: config.CookieAuthToken,
		userId:     userId,
		tokens:     tokens,
	}
	if err := p.RefreshChallenge(); err != nil {
		return nil, err
	}
	return p, nil
}

// bearerToken reads the session from the Authorization header, then the cookie.
func (p *Ed25519AuthProvider) bearerToken(r *http.Request) string {
	if h := r.Header.Get(config.HAuthorization); strings.HasPrefix(h, config.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, config.BearerPrefix))
	}
	if cookie, err := r.Cookie(p.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (p *Ed25519AuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := p.bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := p.tokens.Parse(token)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Ignoring invalid session token")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserId(r.Context(), claims.UserID)))
		})
	}
}

func (p *Ed25519AuthProvider) GetUserIdFromSession(r *http.Request) (model.UserID, error) {
	return userFromContext(r)
}

func (p *Ed25519AuthProvider) EnforceUserAndGetId(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforce(p, w, r)
}

// GetChallenge returns a copy of the challenge that needs to be signed
func (p *Ed25519AuthProvider) GetChallenge() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]byte(nil), p.challenge...)
}

func (p *Ed25519AuthProvider) RefreshChallenge() error {
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		authLogger.Error().Err(err).Msg("Failed to generate challenge")
		return fmt.Errorf("failed to generate challenge: %w", err)
	}

	p.mu.Lock()
	p.challenge = challenge
	p.mu.Unlock()
	return nil
}

// Verify checks signature against the current challenge and rotates it on success,
// so a captured signature cannot be replayed.
func (p *Ed25519AuthProvider) Verify(signature []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !ed25519.Verify(p.publicKey, p.challenge, signature) {
		return false
	}

	next := make([]byte, 32)
	if _, err := rand.Read(next); err != nil {
		authLogger.Error().Err(err).Msg("Failed to rotate challenge")
		return true
	}
	p.challenge = next
	return true
}
