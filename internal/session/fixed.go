package session

import (
	"context"
	"net/http"

	"github.com/luxoras/storefront/internal/api"
)

// Fixed is a request-scoped session around a token read from an incoming request.
// It never refreshes: a 401/403 is reported as ErrSessionExpired so the page can
// fall back to a client-side refresh.
type Fixed struct {
	token string
}

// NewFixed creates a Fixed session. An empty token is allowed.
func NewFixed(token string) *Fixed {
	return &Fixed{token: token}
}

func (f *Fixed) AccessToken(context.Context) string {
	return f.token
}

func (f *Fixed) WithRefresh(ctx context.Context, send SendFunc) (*http.Response, error) {
	resp, err := send(ctx, f.token)
	if err != nil {
		return nil, err
	}
	if api.IsAuthFailure(resp.StatusCode) {
		discard(resp)
		return nil, ErrSessionExpired
	}
	return resp, nil
}
