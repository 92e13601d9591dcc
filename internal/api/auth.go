package api

import (
	crand "crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SessionSecret returns the configured signing secret, or a random
// in-memory one for development when none is set.
func SessionSecret(configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	secret := make([]byte, 32)
	if _, err := crand.Read(secret); err != nil {
		return nil, errors.New("failed to generate dev session secret")
	}
	logging.Warn("no JWT secret configured, using a random development secret", nil)
	return secret, nil
}

// IssueToken signs an HS256 token whose subject is the player ID.
func IssueToken(secret []byte, playerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// AuthRequired validates the bearer token and injects the player ID into
// the context.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(constants.HeaderAuthorization)
		if !strings.HasPrefix(header, constants.BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrAuthRequired})
			return
		}
		playerID, err := parseToken(secret, strings.TrimPrefix(header, constants.BearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrInvalidSession})
			return
		}
		c.Set(constants.ContextPlayerID, playerID)
		c.Next()
	}
}

func currentPlayer(c *gin.Context) string {
	return c.GetString(constants.ContextPlayerID)
}
