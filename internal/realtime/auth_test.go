package realtime

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestExtractBearerSubprotocol(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantToken   string
		wantMatched string
		wantOK      bool
	}{
		{
			name:        "single bearer candidate",
			header:      "Bearer abc.def.ghi",
			wantToken:   "abc.def.ghi",
			wantMatched: "Bearer abc.def.ghi",
			wantOK:      true,
		},
		{
			name:        "bearer among other candidates",
			header:      "chat, Bearer tok123, json",
			wantToken:   "tok123",
			wantMatched: "Bearer tok123",
			wantOK:      true,
		},
		{
			name:   "no bearer candidate",
			header: "chat, json",
			wantOK: false,
		},
		{
			name:   "empty header",
			header: "",
			wantOK: false,
		},
		{
			name:   "lowercase bearer does not match",
			header: "bearer tok123",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, matched, ok := ExtractBearerSubprotocol(tt.header)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, tt.wantMatched, matched)
			}
		})
	}
}

func TestConnectionAuthenticator_ValidToken(t *testing.T) {
	userID := uuid.New()
	auth := NewConnectionAuthenticator("test-secret")

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	got, err := auth.Authenticate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestConnectionAuthenticator_WrongSecret(t *testing.T) {
	auth := NewConnectionAuthenticator("test-secret")

	tokenString := signToken(t, "other-secret", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := auth.Authenticate(tokenString)
	assert.Error(t, err)
}

func TestConnectionAuthenticator_ExpiredToken(t *testing.T) {
	auth := NewConnectionAuthenticator("test-secret")

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := auth.Authenticate(tokenString)
	assert.Error(t, err)
}

func TestConnectionAuthenticator_SubjectNotUUID(t *testing.T) {
	auth := NewConnectionAuthenticator("test-secret")

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "not-a-uuid",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := auth.Authenticate(tokenString)
	assert.Error(t, err)
}

func TestUserGroup(t *testing.T) {
	userID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	assert.Equal(t, "user_550e8400-e29b-41d4-a716-446655440000", UserGroup(userID))
}
