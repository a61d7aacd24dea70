package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.luxoras.nl"

// DefaultTimeout bounds a single request, including reading the response headers.
const DefaultTimeout = 30 * time.Second

// HeaderScheme selects how the access token is written into the Authorization header.
type HeaderScheme string

const (
	// HeaderSchemeRaw sends the bare token, which is what the API's auth middleware reads.
	HeaderSchemeRaw HeaderScheme = "raw"
	// HeaderSchemeBearer sends "Bearer <token>".
	HeaderSchemeBearer HeaderScheme = "bearer"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all requests.
// A cookie jar on this client carries the refresh cookie set by the exchange endpoint.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeaderScheme sets the Authorization header format.
func WithHeaderScheme(scheme HeaderScheme) Option {
	return func(c *Client) {
		c.headerScheme = scheme
	}
}

// WithRefreshMethod sets the HTTP method used for the refresh endpoint (GET or POST).
func WithRefreshMethod(method string) Option {
	return func(c *Client) {
		c.refreshMethod = method
	}
}

// Client builds and sends requests to the remote API.
type Client struct {
	baseURL       *url.URL
	httpClient    *http.Client
	headerScheme  HeaderScheme
	refreshMethod string
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host required", baseURL)
	}

	c := &Client{
		baseURL:       u,
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		headerScheme:  HeaderSchemeRaw,
		refreshMethod: http.MethodGet,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// HTTPClient returns the HTTP client requests are sent with.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// URL resolves path (and optional query) against the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// SetAuthorization writes token into req's Authorization header using the configured scheme.
// An empty token leaves the header unset.
func (c *Client) SetAuthorization(req *http.Request, token string) {
	if token == "" {
		return
	}
	if c.headerScheme == HeaderSchemeBearer {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		return
	}
	req.Header.Set("Authorization", token)
}

// NewRequest builds a request for path. A non-nil body is sent as JSON.
// The token, when non-empty, is attached as the Authorization header.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body any, token string) (*http.Request, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.SetAuthorization(req, token)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return req, nil
}

// Do sends req. Network failures are returned as KindTransport errors; any response,
// whatever its status, is returned to the caller unread.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, TransportError("request cancelled", errors.Join(ctxErr, err))
		}
		return nil, TransportError("network error", err)
	}
	return resp, nil
}

// DecodeJSON reads a successful JSON response into T. Non-2xx responses become *Error.
// The response body is always closed.
func DecodeJSON[T any](resp *http.Response) (T, error) {
	var out T
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, DecodeError(resp)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, TransportError("invalid response body", err)
	}
	return out, nil
}

// ExpectOK checks that resp is successful and discards its body.
func ExpectOK(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DecodeError(resp)
	}
	_ = resp.Body.Close()
	return nil
}

// ResolveBaseURL picks the API base URL for the environment. Development uses devBaseURL when set.
// All configuration paths go through this function.
func ResolveBaseURL(development bool, baseURL, devBaseURL string) string {
	if development && devBaseURL != "" {
		return devBaseURL
	}
	if baseURL == "" {
		return DefaultBaseURL
	}
	return baseURL
}

// IsDevelopmentHost reports whether host (optionally with port) is a local or cloud-IDE
// development host: localhost, *.github.dev, *.gitpod.io, or anything served on port 5173.
func IsDevelopmentHost(host string) bool {
	hostname, port, err := net.SplitHostPort(host)
	if err != nil {
		hostname = host
		port = ""
	}
	hostname = strings.ToLower(strings.TrimSuffix(hostname, "."))

	switch {
	case port == "5173":
		return true
	case hostname == "localhost", hostname == "127.0.0.1", hostname == "::1":
		return true
	case strings.HasSuffix(hostname, ".github.dev"), strings.HasSuffix(hostname, ".gitpod.io"):
		return true
	default:
		return false
	}
}
