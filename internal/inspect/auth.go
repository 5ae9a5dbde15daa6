package inspect

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingToken is returned when a request carries no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// Authenticator issues and checks HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

// NewAuthenticator creates an Authenticator signing with secret. Tokens it
// issues expire after ttl.
func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl}
}

// GenerateToken issues a token for subject.
func (a *Authenticator) GenerateToken(subject string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(a.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Validate checks tokenString and returns its subject.
func (a *Authenticator) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("invalid token claims: %w", err)
	}
	return subject, nil
}

// tokenFrom reads the bearer token from the Authorization header, falling
// back to the token query parameter for websocket clients.
func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Middleware rejects requests without a valid token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFrom(r)
		if raw == "" {
			renderError(w, http.StatusUnauthorized, ErrMissingToken, "unauthorized")
			return
		}
		if _, err := a.Validate(raw); err != nil {
			renderError(w, http.StatusUnauthorized, err, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
