package chi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	logpkg "github.com/abdul7867/SearchAi/internal/logger"
)

// DefaultCookieName carries the session token set by the auth service.
const DefaultCookieName = "token"

var (
	errNoToken      = errors.New("no token")
	errInvalidToken = errors.New("invalid token")
)

type ownerKey struct{}

type sessionClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 session tokens. The owner id is the "id" claim.
// The cookie is checked first, then the Authorization: Bearer header.
type Authenticator struct {
	secret     []byte
	cookieName string
	parser     *jwt.Parser
}

// NewAuthenticator creates an Authenticator for the shared signing secret.
func NewAuthenticator(secret, cookieName string) *Authenticator {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Authenticator{
		secret:     []byte(secret),
		cookieName: cookieName,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Sign issues a token for owner, valid for ttl from now. Used by tooling and tests.
func (a *Authenticator) Sign(owner string, now time.Time, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		ID: owner,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Owner resolves the authenticated owner id of a request.
func (a *Authenticator) Owner(r *http.Request) (string, error) {
	raw := a.token(r)
	if raw == "" {
		return "", errNoToken
	}

	claims := &sessionClaims{}
	tok, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", errors.Join(errInvalidToken, err)
	}
	if !tok.Valid || claims.ID == "" {
		return "", errInvalidToken
	}
	return claims.ID, nil
}

func (a *Authenticator) token(r *http.Request) string {
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	const bearerPrefix = "Bearer "
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(h[len(bearerPrefix):])
	}
	return ""
}

// RequireAuth rejects requests without a valid token.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := a.Owner(r)
		switch {
		case errors.Is(err, errNoToken):
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		case err != nil:
			logpkg.FromContext(r.Context()).Debug("token verification failed", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
	})
}

// OptionalAuth attaches the owner when a valid token is present.
// A missing or invalid token continues anonymously.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := a.Owner(r)
		if err != nil {
			if !errors.Is(err, errNoToken) {
				logpkg.FromContext(r.Context()).Debug("optional auth failed, continuing anonymously", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
	})
}

func withOwner(ctx context.Context, owner string) context.Context {
	ctx = context.WithValue(ctx, ownerKey{}, owner)
	return logpkg.WithOwner(ctx, owner)
}

// OwnerFromContext returns the authenticated owner id, or "" for anonymous requests.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
