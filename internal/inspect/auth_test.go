package inspect

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator_RoundTrip(t *testing.T) {
	a := NewAuthenticator("secret", time.Minute)

	token, err := a.GenerateToken("ci")
	require.NoError(t, err)

	subject, err := a.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ci", subject)
}

func TestAuthenticator_RejectsOtherSecret(t *testing.T) {
	token, err := NewAuthenticator("one", time.Minute).GenerateToken("ci")
	require.NoError(t, err)

	_, err = NewAuthenticator("two", time.Minute).Validate(token)
	assert.Error(t, err)
}

func TestAuthenticator_RejectsExpired(t *testing.T) {
	a := NewAuthenticator("secret", -time.Minute)

	token, err := a.GenerateToken("ci")
	require.NoError(t, err)

	_, err = a.Validate(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthenticator_RejectsOtherAlgorithm(t *testing.T) {
	claims := jwt.MapClaims{"sub": "ci", "exp": time.Now().Add(time.Minute).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewAuthenticator("secret", time.Minute).Validate(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected signing method")
}

func TestTokenFrom(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"bearer header", "Bearer abc", "", "abc"},
		{"query fallback", "", "?token=xyz", "xyz"},
		{"header wins", "Bearer abc", "?token=xyz", "abc"},
		{"non-bearer header", "Basic abc", "?token=xyz", ""},
		{"none", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/events"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, tokenFrom(req))
		})
	}
}
