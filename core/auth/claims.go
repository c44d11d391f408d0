// Package auth reads the upstream API tokens and keeps them where each app needs them.
package auth

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
)

var NowFunc = time.Now // mockable

// Claims are the claims of the upstream API token. The gateway does not own the
// signing key: claims are read without verification, the API verifies every call.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Name     string `json:"nombre,omitempty"`
	Role     string `json:"rol,omitempty"`
}

// ParseToken reads the claims of token and rejects tokens that already expired.
func ParseToken(token string) (Claims, error) {
	var claims Claims
	if strings.TrimSpace(token) == "" {
		return claims, core.ErrUnauthorized
	}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return claims, errors.Wrap(core.ErrUnauthorized, err.Error())
	}
	if claims.Expired() {
		return claims, core.ErrUnauthorized
	}
	return claims, nil
}

// Expired reports whether the token's expiry is in the past. Tokens without expiry never expire.
func (c Claims) Expired() bool {
	return c.ExpiresAt != 0 && NowFunc().Unix() >= c.ExpiresAt
}

// HasAnyRole reports whether the claimed role is one of roles (case and accent insensitive).
// No roles means any authenticated user.
func (c Claims) HasAnyRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	own := core.Fold(c.Role)
	for _, role := range roles {
		if core.Fold(role) == own {
			return true
		}
	}
	return false
}

// DisplayName is the best human name available.
func (c Claims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}

// Credentials are posted to the API login endpoint.
type Credentials struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Clean() {
	c.Username = core.CleanString(c.Username)
}
