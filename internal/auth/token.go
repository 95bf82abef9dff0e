package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned by Inspect for tokens that are not JWTs
var ErrOpaqueToken = errors.New("token is not a JWT")

// Claims are the claims a Fasten gateway puts in its tokens
type Claims struct {
	jwt.RegisteredClaims
	Username          string `json:"username,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	FullName          string `json:"full_name,omitempty"`
}

// TokenInfo is what the client can learn from a token without verifying it
type TokenInfo struct {
	Subject   string    `json:"subject"`
	Username  string    `json:"username,omitempty"`
	FullName  string    `json:"fullName,omitempty"`
	IssuedAt  time.Time `json:"issuedAt,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Expired   bool      `json:"expired"`
}

// Inspect decodes the claims of a token. The signature is not checked: the
// gateway is the only party that verifies tokens, the client only reads them
// to show session status.
func Inspect(token string, now time.Time) (TokenInfo, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, &Claims{})
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return TokenInfo{}, ErrOpaqueToken
	}

	info := TokenInfo{
		Subject:  claims.Subject,
		Username: claims.Username,
		FullName: claims.FullName,
	}
	if info.Username == "" {
		info.Username = claims.PreferredUsername
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
		info.Expired = exp.Before(now)
	}
	return info, nil
}
