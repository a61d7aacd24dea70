package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/luxoras/storefront/internal/api"
)

// CookieSyncer propagates the access token to the server-readable auth cookie.
// An empty token clears the cookie.
type CookieSyncer interface {
	SyncCookie(ctx context.Context, token string) error
}

// CookieSyncerFunc adapts a function to CookieSyncer.
type CookieSyncerFunc func(ctx context.Context, token string) error

func (f CookieSyncerFunc) SyncCookie(ctx context.Context, token string) error {
	return f(ctx, token)
}

// cookieRequest is the body accepted by the frontend server's cookie endpoint.
type cookieRequest struct {
	Token string `json:"tk"`
}

// EndpointSyncer posts the token to the frontend server's cookie endpoint.
// The resulting Set-Cookie lands in the syncer's cookie jar.
type EndpointSyncer struct {
	endpoint   string
	httpClient *http.Client
}

// Compile-time check that EndpointSyncer implements CookieSyncer.
var _ CookieSyncer = (*EndpointSyncer)(nil)

// NewEndpointSyncer creates a syncer for endpoint. A nil httpClient gets a client with a
// public-suffix aware cookie jar.
func NewEndpointSyncer(endpoint string, httpClient *http.Client) (*EndpointSyncer, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("missing cookie endpoint")
	}
	if httpClient == nil {
		jar, err := NewCookieJar()
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{Timeout: 10 * time.Second, Jar: jar}
	}
	return &EndpointSyncer{endpoint: endpoint, httpClient: httpClient}, nil
}

// NewCookieJar returns a cookie jar that respects public suffix boundaries.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return jar, nil
}

// HTTPClient returns the client whose jar holds the synced cookie.
func (s *EndpointSyncer) HTTPClient() *http.Client {
	return s.httpClient
}

func (s *EndpointSyncer) SyncCookie(ctx context.Context, token string) error {
	body, err := json.Marshal(cookieRequest{Token: token})
	if err != nil {
		return fmt.Errorf("marshaling cookie request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building cookie request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return api.TransportError("posting cookie", err)
	}
	return api.ExpectOK(resp)
}
