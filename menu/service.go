// Package menu fetches the restaurant menu on behalf of tool callers.
//
// A Service runs the get_menu sequence: acquire a bearer token, fetch the menu
// with it, and turn the outcome into a tool result. Nothing is shared between
// invocations, so a Service is safe for concurrent use.
package menu

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flitsinc/menu-mcp/auth"
	"github.com/flitsinc/menu-mcp/tools"
)

// TokenIssuer yields a fresh bearer token per call.
type TokenIssuer interface {
	Acquire(ctx context.Context) (auth.Token, error)
}

// ResourceFetcher fetches the menu document, authenticated with token when it
// is not empty.
type ResourceFetcher interface {
	Fetch(ctx context.Context, token auth.Token) (json.RawMessage, error)
}

// Service is the get_menu facade.
type Service struct {
	issuer  TokenIssuer
	fetcher ResourceFetcher
	logger  *zap.Logger
}

// NewService returns a Service. A nil issuer disables authentication: the menu
// is fetched without a token and failures surface their own message.
func NewService(issuer TokenIssuer, fetcher ResourceFetcher) *Service {
	return &Service{
		issuer:  issuer,
		fetcher: fetcher,
		logger:  zap.NewNop(),
	}
}

func (s *Service) WithLogger(logger *zap.Logger) *Service {
	if logger != nil {
		s.logger = logger.Named("menu")
	}
	return s
}

// AuthEnabled reports whether calls acquire a token first.
func (s *Service) AuthEnabled() bool {
	return s.issuer != nil
}

// Fetch runs the sequence and returns the menu document or a
// *TokenUnavailableError / *ResourceFetchFailedError.
func (s *Service) Fetch(ctx context.Context) (json.RawMessage, error) {
	var token auth.Token
	if s.issuer != nil {
		t, err := s.issuer.Acquire(ctx)
		if err != nil {
			return nil, &TokenUnavailableError{Err: err}
		}
		token = t
	}

	doc, err := s.fetcher.Fetch(ctx, token)
	if err != nil {
		return nil, &ResourceFetchFailedError{Endpoint: endpointOf(s.fetcher), Err: err}
	}
	return doc, nil
}

// GetMenu runs one get_menu invocation. It never returns a partial document:
// the result is either the menu exactly as served or {"error": message}.
func (s *Service) GetMenu(ctx context.Context) tools.Result {
	doc, err := s.Fetch(ctx)
	if err == nil {
		return tools.SuccessWithJSON("Menu", doc)
	}

	switch err.(type) {
	case *TokenUnavailableError:
		s.logger.Error("get_menu: token acquisition failed", zap.Error(err))
		return tools.ErrorWithMessage("Error: token", MsgTokenUnavailable, err)
	default:
		s.logger.Error("get_menu: menu fetch failed", zap.Bool("auth", s.AuthEnabled()), zap.Error(err))
		if !s.AuthEnabled() {
			// Unauthenticated callers get the cause itself.
			return tools.ErrorWithMessage("Error: fetch", causeMessage(err), err)
		}
		return tools.ErrorWithMessage("Error: fetch", MsgResourceFetchFailed, err)
	}
}

func causeMessage(err error) string {
	if f, ok := err.(*ResourceFetchFailedError); ok {
		return f.Err.Error()
	}
	return err.Error()
}

func endpointOf(f ResourceFetcher) string {
	if e, ok := f.(interface{ Endpoint() string }); ok {
		return e.Endpoint()
	}
	return ""
}
