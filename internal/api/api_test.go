package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(server.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "api.luxoras.nl", "://bad"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) should fail", raw)
		}
	}
}

func TestURL(t *testing.T) {
	c, err := New("https://api.example.com/v1/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := c.URL("/listings", url.Values{"page": {"2"}, "limit": {"10"}})
	want := "https://api.example.com/v1/listings?limit=10&page=2"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestSetAuthorization(t *testing.T) {
	tests := []struct {
		name   string
		scheme HeaderScheme
		token  string
		want   string
	}{
		{name: "raw", scheme: HeaderSchemeRaw, token: "tok_1", want: "tok_1"},
		{name: "bearer", scheme: HeaderSchemeBearer, token: "tok_1", want: "Bearer tok_1"},
		{name: "empty token leaves header unset", scheme: HeaderSchemeBearer, token: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(DefaultBaseURL, WithHeaderScheme(tt.scheme))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			req, err := c.NewRequest(context.Background(), http.MethodGet, "/auth/userinfo", nil, nil, tt.token)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			if got := req.Header.Get("Authorization"); got != tt.want {
				t.Errorf("Authorization = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewRequestBodyIsReplayable(t *testing.T) {
	c, _ := New(DefaultBaseURL)
	req, err := c.NewRequest(context.Background(), http.MethodPost, "/listings/bid", nil, Bid{Amount: 10, ProductID: "p"}, "tok")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if req.GetBody == nil {
		t.Fatal("GetBody should be set for JSON bodies")
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", req.Header.Get("Content-Type"))
	}
}

func TestDecodeError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{name: "code and message", status: 400, body: `{"code":400,"message":"bad bid"}`, wantKind: KindApplication, wantMsg: "bad bid"},
		{name: "error field", status: 404, body: `{"error":"not found"}`, wantKind: KindApplication, wantMsg: "not found"},
		{name: "unparseable body", status: 502, body: `<html>bad gateway</html>`, wantKind: KindApplication, wantMsg: "HTTP 502: Bad Gateway"},
		{name: "empty body auth", status: 401, body: ``, wantKind: KindAuth, wantMsg: "HTTP 401: Unauthorized"},
		{name: "forbidden", status: 403, body: `{"code":403,"message":"nope"}`, wantKind: KindAuth, wantMsg: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DecodeError(response(tt.status, tt.body))
			if err.Kind != tt.wantKind || err.Code != tt.status || err.Message != tt.wantMsg {
				t.Errorf("DecodeError() = %+v, want kind %v code %d message %q", err, tt.wantKind, tt.status, tt.wantMsg)
			}
		})
	}
}

func TestExchange(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/github/exchange" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query()
		_, _ = io.WriteString(w, `{"access_token":"tok_1"}`)
	})

	tok, err := c.Exchange(context.Background(), ProviderGitHub, "abc123", "xyz")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if tok.AccessToken != "tok_1" {
		t.Errorf("AccessToken = %q, want tok_1", tok.AccessToken)
	}
	if gotQuery.Get("code") != "abc123" || gotQuery.Get("state") != "xyz" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestExchangeMissingTokenField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.Exchange(context.Background(), ProviderGoogle, "c", "s")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if apiErr.Code != http.StatusInternalServerError || apiErr.Kind != KindApplication {
		t.Errorf("error = %+v", apiErr)
	}
}

func TestRefreshUsesConfiguredMethod(t *testing.T) {
	var gotMethod, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"access_token":"tok_2"}`)
	}, WithRefreshMethod(http.MethodPost))

	tok, err := c.Refresh(context.Background(), "tok_1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tok.AccessToken != "tok_2" || gotMethod != http.MethodPost || gotAuth != "tok_1" {
		t.Errorf("token %q method %q auth %q", tok.AccessToken, gotMethod, gotAuth)
	}
}

func TestVerifyRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Verify(context.Background(), "expired")
	if KindOf(err) != KindAuth {
		t.Errorf("KindOf(%v) = %v, want auth", err, KindOf(err))
	}
}

func TestTransportErrorKind(t *testing.T) {
	c, _ := New("http://127.0.0.1:1")
	err := c.Logout(context.Background(), "tok")
	if KindOf(err) != KindTransport {
		t.Errorf("KindOf(%v) = %v, want transport", err, KindOf(err))
	}
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name        string
		development bool
		base, dev   string
		want        string
	}{
		{name: "production default", want: DefaultBaseURL},
		{name: "production explicit", base: "https://api.test", dev: "http://localhost:8080", want: "https://api.test"},
		{name: "development with dev url", development: true, base: "https://api.test", dev: "http://localhost:8080", want: "http://localhost:8080"},
		{name: "development without dev url", development: true, base: "https://api.test", want: "https://api.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveBaseURL(tt.development, tt.base, tt.dev); got != tt.want {
				t.Errorf("ResolveBaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsDevelopmentHost(t *testing.T) {
	tests := map[string]bool{
		"localhost":                    true,
		"localhost:3000":               true,
		"127.0.0.1:8080":               true,
		"shiny-space-xyz.github.dev":   true,
		"8080-abc.ws-eu.gitpod.io:443": true,
		"preview.luxoras.nl:5173":      true,
		"luxoras.nl":                   false,
		"www.luxoras.nl:443":           false,
		"github.dev.evil.com":          false,
	}

	for host, want := range tests {
		if got := IsDevelopmentHost(host); got != want {
			t.Errorf("IsDevelopmentHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestParseProviderAndEndpoint(t *testing.T) {
	if _, err := ParseProvider("gitlab"); KindOf(err) != KindValidation {
		t.Errorf("ParseProvider(gitlab) error = %v, want validation", err)
	}

	p, err := ParseProvider("google")
	if err != nil {
		t.Fatalf("ParseProvider(google): %v", err)
	}

	c, _ := New(DefaultBaseURL)
	ep := c.Endpoint(p)
	if ep.AuthURL != DefaultBaseURL+"/auth/google" || ep.TokenURL != DefaultBaseURL+"/auth/google/exchange" {
		t.Errorf("Endpoint() = %+v", ep)
	}
}

func TestAddQueryParam(t *testing.T) {
	q := url.Values{}
	if err := AddQueryParam(q, "limit", 10); err != nil {
		t.Fatalf("AddQueryParam: %v", err)
	}
	if err := AddOptionalQueryParam(q, "searchquery", "rolex & co"); err != nil {
		t.Fatalf("AddOptionalQueryParam: %v", err)
	}
	if err := AddOptionalQueryParam(q, "category", ""); err != nil {
		t.Fatalf("AddOptionalQueryParam: %v", err)
	}

	if q.Get("limit") != "10" || q.Get("searchquery") != "rolex & co" || q.Has("category") {
		t.Errorf("query = %v", q)
	}
}
