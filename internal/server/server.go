// Package server is the frontend server: it completes OAuth sign-in, keeps the auth cookie in
// sync with the client, and answers page loaders using the token carried by that cookie.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/authcookie"
	"github.com/luxoras/storefront/internal/observability/middleware"
)

// Default landing paths after the OAuth callback.
const (
	DefaultSuccessPath = "/marketplace"
	DefaultFailurePath = "/"
)

// Option configures a Server.
type Option func(*Server)

// WithDevelopment disables the Secure cookie attribute for every request.
func WithDevelopment(development bool) Option {
	return func(s *Server) {
		s.development = development
	}
}

// WithDevelopmentClient sets the API client used for requests arriving on a development host.
func WithDevelopmentClient(client *api.Client) Option {
	return func(s *Server) {
		s.devClient = client
	}
}

// WithLandingPaths sets where the OAuth callback redirects on success and failure.
func WithLandingPaths(success, failure string) Option {
	return func(s *Server) {
		if success != "" {
			s.successPath = success
		}
		if failure != "" {
			s.failurePath = failure
		}
	}
}

// Server represents the frontend HTTP server.
type Server struct {
	router chi.Router
	server *http.Server

	client      *api.Client
	devClient   *api.Client
	cookie      *authcookie.Codec
	development bool
	successPath string
	failurePath string
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates a Server that talks to the API through client and stores tokens in cookie.
func New(client *api.Client, cookie *authcookie.Codec, opts ...Option) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("missing API client")
	}
	if cookie == nil {
		cookie = authcookie.New()
	}

	s := &Server{
		client:      client,
		cookie:      cookie,
		successPath: DefaultSuccessPath,
		failurePath: DefaultFailurePath,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger := slog.Default()

	r := chi.NewRouter()
	r.Use(middleware.Logging(logger), Recovery)

	r.Get("/healthz", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(CrossOriginProtection())
			r.Post("/cookie", s.handleSetCookie)
			r.Post("/logout", s.handleLogout)
		})
		r.Get("/{provider}", s.handleAuthRedirect)
		r.Get("/{provider}/callback", s.handleAuthCallback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Get("/listings", s.handleListings)
		r.Get("/listings/{id}", s.handleListing)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, api.Error{Code: http.StatusNotFound, Message: "not found"}, http.StatusNotFound)
	})

	s.router = r
	return s, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// clientFor returns the API client for the request's host.
func (s *Server) clientFor(r *http.Request) *api.Client {
	if s.devClient != nil && api.IsDevelopmentHost(r.Host) {
		return s.devClient
	}
	return s.client
}

// cookieFor returns the cookie codec for the request's host. Development setups serve plain HTTP
// and drop the Secure attribute.
func (s *Server) cookieFor(r *http.Request) *authcookie.Codec {
	if s.cookie.Secure() && (s.development || api.IsDevelopmentHost(r.Host)) {
		return s.cookie.WithSecure(false)
	}
	return s.cookie
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong"))
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second, // Bounds loaders waiting on the API
		IdleTimeout:       90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
