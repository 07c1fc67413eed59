package menu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/flitsinc/menu-mcp/auth"
)

const (
	maxDocumentSize = 4 << 20
	maxErrorMessage = 256
)

// Fetcher performs the authenticated GET against the resource endpoint.
type Fetcher struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewFetcher returns a Fetcher for endpoint. A nil client means
// http.DefaultClient.
func NewFetcher(endpoint string, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		endpoint: endpoint,
		client:   client,
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the logger used for menu requests. A nil logger is ignored.
func (f *Fetcher) WithLogger(logger *zap.Logger) *Fetcher {
	if logger != nil {
		f.logger = logger.Named("fetcher")
	}
	return f
}

// Endpoint returns the resource endpoint URL.
func (f *Fetcher) Endpoint() string {
	return f.endpoint
}

// Fetch sends one GET and returns the body unchanged if it is valid JSON. An
// empty token sends the request without credentials.
func (f *Fetcher) Fetch(ctx context.Context, token auth.Token) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build menu request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.clientFor(token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("request menu: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read menu response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    errorMessage(body),
		}
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("menu response exceeds %d bytes", maxDocumentSize)
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		var v any
		err := json.Unmarshal(body, &v)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return nil, fmt.Errorf("decode menu response: %w", err)
	}
	f.logger.Debug("fetched menu", zap.Int("bytes", len(body)))
	return json.RawMessage(body), nil
}

// clientFor wraps the base client so the bearer header is set by oauth2.
func (f *Fetcher) clientFor(token auth.Token) *http.Client {
	if token == "" {
		return f.client
	}
	c := *f.client
	c.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(token.OAuth2()),
		Base:   f.client.Transport,
	}
	return &c
}

func errorMessage(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage] + "..."
	}
	return msg
}
