package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the backend puts in its access tokens. Different
// backend versions name the user id differently, so all spellings are read.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"userId,omitempty"`
	LegacyID  string `json:"id,omitempty"`
	Role      string `json:"role,omitempty"`
	FirstName string `json:"firstName,omitempty"`
}

// Identity is what the client knows about the signed-in user. The zero value
// is the anonymous user.
type Identity struct {
	Token     string
	UserID    string
	Role      string
	Name      string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Parse extracts an Identity from a bearer token without verifying its
// signature; the backend verifies every request. A leading "Bearer " is
// stripped.
func Parse(token string) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Identity{}, errors.Join(ErrMalformedToken, err)
	}

	id := Identity{
		Token:  token,
		UserID: firstNonEmpty(claims.UserID, claims.LegacyID, claims.Subject),
		Role:   claims.Role,
		Name:   claims.FirstName,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	if id.UserID == "" {
		return Identity{}, fmt.Errorf("%w: no user id claim", ErrMalformedToken)
	}
	return id, nil
}

// Anonymous reports whether no user is signed in.
func (i Identity) Anonymous() bool {
	return i.Token == ""
}

// Expired reports whether the token's exp claim is at or before now.
// Tokens without exp never expire on the client.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Authenticated reports whether the identity can be used for requests at now.
func (i Identity) Authenticated(now time.Time) bool {
	return !i.Anonymous() && !i.Expired(now)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
