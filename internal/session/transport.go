package session

import (
	"context"
	"fmt"
	"net/http"
)

// Transport attaches the session token to outgoing requests and re-authenticates once on 401/403.
// Requests whose body cannot be replayed (no GetBody) are sent once without the retry.
type Transport struct {
	session *Manager
	base    http.RoundTripper
}

// Compile-time check that Transport implements http.RoundTripper.
var _ http.RoundTripper = (*Transport)(nil)

// Transport returns a RoundTripper over base, or http.DefaultTransport when base is nil.
func (m *Manager) Transport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{session: m, base: base}
}

// HTTPClient returns a client that authenticates through the session. It shares the API
// client's transport, timeout and cookie jar.
func (m *Manager) HTTPClient() *http.Client {
	base := m.client.HTTPClient()
	return &http.Client{
		Transport: m.Transport(base.Transport),
		Timeout:   base.Timeout,
		Jar:       base.Jar,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		r := req.Clone(ctx)
		t.session.client.SetAuthorization(r, t.session.AccessToken(ctx))
		return t.base.RoundTrip(r)
	}

	attempt := 0
	return t.session.WithRefresh(ctx, func(ctx context.Context, token string) (*http.Response, error) {
		r := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("replaying request body: %w", err)
			}
			r.Body = body
		}
		attempt++

		r.Header.Del("Authorization")
		t.session.client.SetAuthorization(r, token)
		return t.base.RoundTrip(r)
	})
}
