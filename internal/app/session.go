package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/session"
	"github.com/luxoras/storefront/internal/tokenstore"
)

// NewAPIClient creates an API client for baseURL using the configured timeout, header scheme and
// refresh method. A non-nil jar carries the API's refresh cookie between requests.
func NewAPIClient(cfg *Config, baseURL string, jar http.CookieJar) (*api.Client, error) {
	httpClient := &http.Client{Timeout: cfg.API.Timeout, Jar: jar}
	client, err := api.New(baseURL,
		api.WithHTTPClient(httpClient),
		api.WithHeaderScheme(cfg.Auth.HeaderScheme),
		api.WithRefreshMethod(cfg.Auth.RefreshMethod),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// NewSession creates the client-side session manager from application configuration:
// the configured token store, an API client whose cookies are saved next to the token and,
// when a cookie endpoint is configured, cookie propagation to the frontend server.
// The returned closer releases the token store.
func NewSession(ctx context.Context, cfg *Config) (*session.Manager, io.Closer, error) {
	store, closer, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create token store: %w", err)
	}

	manager, err := newSession(ctx, cfg, store)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return manager, closer, nil
}

func newSession(ctx context.Context, cfg *Config, store tokenstore.TokenStore) (*session.Manager, error) {
	cookies, err := cfg.Auth.NewCookieStore(store)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie store: %w", err)
	}

	baseURL := cfg.APIBaseURL()
	jar, err := session.NewPersistentJar(ctx, baseURL, cookies)
	if err != nil {
		return nil, err
	}

	client, err := NewAPIClient(cfg, baseURL, jar)
	if err != nil {
		return nil, err
	}

	opts := []session.Option{session.WithRefreshLeeway(cfg.Auth.RefreshLeeway)}
	if cfg.Auth.CookieSyncURL != "" {
		syncer, err := session.NewEndpointSyncer(cfg.Auth.CookieSyncURL, &http.Client{Timeout: cfg.API.Timeout, Jar: jar})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie syncer: %w", err)
		}
		opts = append(opts, session.WithCookieSyncer(syncer))
	}

	return session.New(store, client, opts...)
}
