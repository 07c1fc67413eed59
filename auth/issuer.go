// Package auth acquires bearer tokens from a token issuer.
//
// An Issuer sends one POST per call and never caches what it gets back:
//
//	issuer := auth.NewIssuer("http://localhost:5000/api/token", httpClient)
//	token, err := issuer.Acquire(ctx)
//	if err != nil {
//	    // errors.Is(err, auth.ErrNoToken)
//	}
package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// maxTokenResponse bounds how much of the issuer response is read.
const maxTokenResponse = 64 << 10

// Issuer requests tokens from a single token endpoint.
type Issuer struct {
	endpoint string
	client   *http.Client
	parsers  []Parser
	logger   *zap.Logger
}

// NewIssuer returns an Issuer for endpoint. A nil client means
// http.DefaultClient.
func NewIssuer(endpoint string, client *http.Client) *Issuer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Issuer{
		endpoint: endpoint,
		client:   client,
		parsers:  DefaultParsers(),
		logger:   zap.NewNop(),
	}
}

// WithParsers replaces the ordered list of response parsers.
func (i *Issuer) WithParsers(parsers ...Parser) *Issuer {
	i.parsers = append([]Parser{}, parsers...)
	return i
}

// WithLogger sets the logger used for token requests. A nil logger is ignored.
func (i *Issuer) WithLogger(logger *zap.Logger) *Issuer {
	if logger != nil {
		i.logger = logger.Named("issuer")
	}
	return i
}

// Endpoint returns the token endpoint URL.
func (i *Issuer) Endpoint() string {
	return i.endpoint
}

// Acquire requests a new token. Any failure, including a response that holds
// no structurally valid token, returns an error wrapping ErrNoToken.
func (i *Issuer) Acquire(ctx context.Context) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, http.NoBody)
	if err != nil {
		return "", i.fail(fmt.Errorf("build token request: %w", err))
	}
	req.Header.Set("Accept", "*/*")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", i.fail(fmt.Errorf("request token: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if err != nil {
		return "", i.fail(fmt.Errorf("read token response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", i.fail(fmt.Errorf("token request failed (HTTP %d)", resp.StatusCode))
	}

	for _, p := range i.parsers {
		candidate, err := p.Parse(body)
		if err != nil {
			i.logger.Debug("token parser did not match", zap.String("parser", p.Name()), zap.Error(err))
			continue
		}
		if !ValidToken(candidate) {
			i.logger.Warn("token failed structural validation", zap.String("parser", p.Name()))
			continue
		}
		return Token(candidate), nil
	}
	return "", i.fail(fmt.Errorf("no parser produced a valid token from %d byte response", len(body)))
}

func (i *Issuer) fail(err error) error {
	i.logger.Error("failed to obtain token", zap.String("endpoint", i.endpoint), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrNoToken, err)
}

// TokenSource adapts the issuer to oauth2. Every Token call acquires a fresh
// token with ctx.
func (i *Issuer) TokenSource(ctx context.Context) oauth2.TokenSource {
	return issuerSource{ctx: ctx, issuer: i}
}

type issuerSource struct {
	ctx    context.Context
	issuer *Issuer
}

func (s issuerSource) Token() (*oauth2.Token, error) {
	t, err := s.issuer.Acquire(s.ctx)
	if err != nil {
		return nil, err
	}
	return t.OAuth2(), nil
}
