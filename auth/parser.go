package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Parser extracts a token candidate from an issuer response body.
type Parser interface {
	// Name identifies the parser in logs.
	Name() string
	// Parse returns the candidate token found in body.
	Parse(body []byte) (string, error)
}

// DefaultParsers returns the parsers tried in order when none are configured:
// a JSON object first, then the raw body.
func DefaultParsers() []Parser {
	return []Parser{JSONParser{}, RawTextParser{}}
}

// JSONParser reads the "token" field of a JSON object, falling back to
// "access_token".
type JSONParser struct{}

func (JSONParser) Name() string { return "json" }

func (JSONParser) Parse(body []byte) (string, error) {
	var resp struct {
		Token       *string `json:"token"`
		AccessToken *string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if resp.Token != nil {
		return *resp.Token, nil
	}
	if resp.AccessToken != nil {
		return *resp.AccessToken, nil
	}
	return "", errors.New("token response has neither token nor access_token")
}

// RawTextParser treats the whole body as the token, for issuers that answer
// with text/plain. A body that is a single JSON string literal is unquoted;
// any other JSON value is not a token.
type RawTextParser struct{}

func (RawTextParser) Name() string { return "raw" }

func (RawTextParser) Parse(body []byte) (string, error) {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "", errors.New("empty token response")
	}
	switch s[0] {
	case '{', '[':
		return "", errors.New("body is a JSON document, not a bare token")
	case '"':
		var unquoted string
		if err := json.Unmarshal([]byte(s), &unquoted); err != nil {
			return "", fmt.Errorf("decode quoted token: %w", err)
		}
		s = unquoted
	}
	if i := strings.IndexFunc(s, notTokenRune); i >= 0 {
		return "", fmt.Errorf("unexpected %q in token", s[i])
	}
	return s, nil
}

// notTokenRune reports characters that never appear in a compact token.
func notTokenRune(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(`{}":,`, r)
}
