// Package menuapi serves the restaurant menu over HTTP.
//
// It is the local collaborator the get_menu tool talks to: GET /api/menu
// returns the menu document and POST /api/token mints bearer tokens for it.
// With RequireAuth set, /api/menu only answers requests carrying a token this
// server issued.
package menuapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	DefaultAddr     = "0.0.0.0:5000"
	DefaultTokenTTL = 15 * time.Minute
)

// Options configures a Server.
type Options struct {
	// Menu is the document served on /api/menu. Zero means DefaultMenu.
	Menu *Menu
	// RequireAuth makes /api/menu reject requests without a valid token.
	RequireAuth bool
	// SigningKey signs issued tokens. Empty means a random per-process key.
	SigningKey []byte
	// TokenTTL bounds issued tokens. Zero means DefaultTokenTTL.
	TokenTTL time.Duration
	Logger   *zap.Logger
}

// Server is the menu HTTP API.
type Server struct {
	router      *mux.Router
	menu        Menu
	requireAuth bool
	signer      *signer
	logger      *zap.Logger
}

// New builds a Server and registers its routes.
func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	sig, err := newSigner(opts.SigningKey, ttl)
	if err != nil {
		return nil, err
	}
	m := DefaultMenu()
	if opts.Menu != nil {
		m = *opts.Menu
	}

	s := &Server{
		router:      mux.NewRouter(),
		menu:        m,
		requireAuth: opts.RequireAuth,
		signer:      sig,
		logger:      logger.Named("menuapi"),
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/api/menu", s.handleMenu).Methods(http.MethodGet)
	s.router.HandleFunc("/api/token", s.handleToken).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodGet)
}

// Handler returns the API with CORS applied.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept"},
	})
	return c.Handler(s.router)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	if s.requireAuth {
		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if err := s.signer.verify(strings.TrimSpace(token)); err != nil {
			s.logger.Info("rejected menu request", zap.String("remote", r.RemoteAddr), zap.Error(err))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid or missing bearer token"})
			return
		}
	}
	writeJSON(w, http.StatusOK, s.menu)
}

// handleToken answers {"token": "..."} by default and the bare token for
// ?format=text.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.signer.issue("menu-mcp")
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "token signing failed"})
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(token))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("menu api listening", zap.String("addr", addr), zap.Bool("require_auth", s.requireAuth))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("menu api failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("menu api shutdown: %w", err)
		}
		s.logger.Info("menu api stopped")
		return nil
	}
}
