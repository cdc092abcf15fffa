package auth

import (
	"errors"
	"net/http"
	"slices"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"

	"github.com/debemdeboas/folio/internal/model"
)

const clerkSessionCookie = "__session"

var ErrNotAdmin = errors.New("user is not an admin")

// ClerkAuthProvider accepts Clerk-hosted sessions from the Authorization header or
// the __session cookie.
type ClerkAuthProvider struct {
	admins          []string
	cookieExtractor clerkhttp.AuthorizationOption
}

func NewClerkAuthProvider(clerkKey string, admins []string) *ClerkAuthProvider {
	clerk.SetKey(clerkKey)

	return &ClerkAuthProvider{
		admins: admins,
		cookieExtractor: clerkhttp.AuthorizationJWTExtractor(func(r *http.Request) string {
			cookie, err := r.Cookie(clerkSessionCookie)
			if err != nil {
				return ""
			}
			return cookie.Value
		}),
	}
}

func (c *ClerkAuthProvider) WithHeaderAuthorization() func(http.Handler) http.Handler {
	verify := clerkhttp.WithHeaderAuthorization(c.cookieExtractor)
	return func(next http.Handler) http.Handler {
		attach := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := clerk.SessionClaimsFromContext(r.Context()); ok {
				r = r.WithContext(ContextWithUserId(r.Context(), model.UserID(claims.Subject)))
			}
			next.ServeHTTP(w, r)
		})
		return verify(attach)
	}
}

func (c *ClerkAuthProvider) GetUserIdFromSession(r *http.Request) (model.UserID, error) {
	userID, err := userFromContext(r)
	if err != nil {
		return "", err
	}
	if len(c.admins) > 0 && !slices.Contains(c.admins, string(userID)) {
		return "", ErrNotAdmin
	}
	return userID, nil
}

func (c *ClerkAuthProvider) EnforceUserAndGetId(w http.ResponseWriter, r *http.Request) (model.UserID, error) {
	return enforce(c, w, r)
}
