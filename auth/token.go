package auth

import (
	"errors"
	"strings"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when the issuer did not yield a usable token.
var ErrNoToken = errors.New("no token obtained")

// Token is a bearer credential. It is used for exactly one request and never
// cached.
type Token string

// ValidToken reports whether s looks like a signed token: three non-empty
// dot-separated segments. The signature is not checked.
func ValidToken(s string) bool {
	if s == "" {
		return false
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// OAuth2 returns the token in the form oauth2 transports expect.
func (t Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{AccessToken: string(t), TokenType: "Bearer"}
}
