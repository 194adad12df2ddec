// Package identity adapts identity-provider sessions into the console's user, session and token sources.
package identity

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/errors"
)

// TokenClaims is the part of an identity-provider token the console reads.
type TokenClaims struct {
	User      *models.User
	SessionID string
	ExpiresAt time.Time
}

// ParseToken reads the claims of a session token without verifying its signature.
// Verification belongs to the backend; the console only needs the user and the expiry.
func ParseToken(token string) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.ErrInvalidRequest("empty session token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.ErrInvalidRequest("malformed session token").WithCause(err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.ErrInvalidRequest("session token has no subject")
	}

	user := &models.User{
		ID:        sub,
		Email:     stringClaim(claims, "email"),
		FirstName: stringClaim(claims, "given_name", "first_name"),
		LastName:  stringClaim(claims, "family_name", "last_name"),
		FullName:  stringClaim(claims, "name"),
		ImageURL:  stringClaim(claims, "picture", "image_url"),
	}

	out := &TokenClaims{User: user, SessionID: stringClaim(claims, "sid")}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// UserFromToken returns the user a session token was issued to.
func UserFromToken(token string) (*models.User, error) {
	claims, err := ParseToken(token)
	if err != nil {
		return nil, err
	}
	return claims.User, nil
}

func stringClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
