package realtime

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const bearerPrefix = "Bearer "

// ExtractBearerSubprotocol scans the comma-separated candidates of a
// Sec-WebSocket-Protocol header value for the first one shaped like
// "Bearer <token>". It returns the token and the matched candidate verbatim;
// the candidate must be echoed back as the negotiated subprotocol on accept.
func ExtractBearerSubprotocol(header string) (token, matched string, ok bool) {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if strings.HasPrefix(candidate, bearerPrefix) {
			return strings.TrimPrefix(candidate, bearerPrefix), candidate, true
		}
	}
	return "", "", false
}

// ConnectionAuthenticator resolves bearer tokens to user identities for
// persistent connections.
type ConnectionAuthenticator struct {
	secret []byte
}

// NewConnectionAuthenticator creates an authenticator validating HS256 tokens.
func NewConnectionAuthenticator(secret string) *ConnectionAuthenticator {
	return &ConnectionAuthenticator{secret: []byte(secret)}
}

// Authenticate validates the token's signature and expiry and returns the
// user id from its subject claim.
func (a *ConnectionAuthenticator) Authenticate(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, fmt.Errorf("token has no subject")
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}

	return userID, nil
}
