package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/tokenstore"
)

// SendFunc sends one attempt of a logical request with the given access token.
// It is invoked at most twice per WithRefresh call, with a fresh token the second time.
type SendFunc func(ctx context.Context, token string) (*http.Response, error)

// Option configures a Manager.
type Option func(*Manager)

// WithCookieSyncer sets where SetToken and ClearToken propagate the token after the store write.
func WithCookieSyncer(syncer CookieSyncer) Option {
	return func(m *Manager) {
		m.syncer = syncer
	}
}

// WithRefreshLeeway makes WithRefresh refresh before sending when the token's exp claim is
// within leeway. Zero disables proactive refresh.
func WithRefreshLeeway(leeway time.Duration) Option {
	return func(m *Manager) {
		m.leeway = leeway
	}
}

// Manager owns the session state: the stored token and its cookie copy.
type Manager struct {
	store  tokenstore.TokenStore
	client *api.Client
	syncer CookieSyncer
	leeway time.Duration
	now    func() time.Time

	refreshGroup singleflight.Group
}

// Compile-time check to ensure Manager implements oauth2.TokenSource
var _ oauth2.TokenSource = (*Manager)(nil)

// New creates a Manager.
func New(store tokenstore.TokenStore, client *api.Client, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("missing token store")
	}
	if client == nil {
		return nil, fmt.Errorf("missing API client")
	}

	m := &Manager{
		store:  store,
		client: client,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Client returns the API client used by the session.
func (m *Manager) Client() *api.Client {
	return m.client
}

// AccessToken returns the stored token, or "" when none is stored or the store is unreadable.
func (m *Manager) AccessToken(ctx context.Context) string {
	token, err := m.store.Read(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to read access token", "error", err)
		return ""
	}
	return token
}

// Token returns the stored token as an oauth2.Token, with Expiry set when the token carries an
// exp claim. It never refreshes.
func (m *Manager) Token() (*oauth2.Token, error) {
	// oauth2.TokenSource.Token() has no context parameter
	token, err := m.store.Read(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading access token: %w", err)
	}
	if token == "" {
		return nil, ErrNoToken
	}

	tok := &oauth2.Token{AccessToken: token}
	if exp, ok := Expiry(token); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

// SetToken writes token to the store and then to the cookie.
// A cookie failure is returned wrapped in ErrCookieSync after the store write has succeeded.
func (m *Manager) SetToken(ctx context.Context, token string) error {
	if err := m.store.Write(ctx, token); err != nil {
		return fmt.Errorf("writing access token: %w", err)
	}
	if m.syncer == nil {
		return nil
	}
	if err := m.syncer.SyncCookie(ctx, token); err != nil {
		return fmt.Errorf("%w: %w", ErrCookieSync, err)
	}
	return nil
}

// ClearToken removes the token from the store and clears the cookie.
func (m *Manager) ClearToken(ctx context.Context) error {
	if err := m.store.Delete(ctx); err != nil {
		return fmt.Errorf("deleting access token: %w", err)
	}
	if m.syncer == nil {
		return nil
	}
	if err := m.syncer.SyncCookie(ctx, ""); err != nil {
		return fmt.Errorf("%w: %w", ErrCookieSync, err)
	}
	return nil
}

// Refresh exchanges the stored token for a new one and returns a status surrogate:
// 200 on success, 403 when no token is stored (no network call), 500 on any other failure.
func (m *Manager) Refresh(ctx context.Context) int {
	return m.refreshFrom(ctx, m.AccessToken(ctx))
}

// refreshFrom coalesces refreshes of the same stale token. The shared call is detached from the
// caller's cancellation; a caller that gives up early reports 500 without affecting the others.
func (m *Manager) refreshFrom(ctx context.Context, stale string) int {
	ch := m.refreshGroup.DoChan(stale, func() (any, error) {
		return m.doRefresh(context.WithoutCancel(ctx), stale), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.DebugContext(ctx, "joined in-flight refresh")
		}
		return res.Val.(int)
	case <-ctx.Done():
		return http.StatusInternalServerError
	}
}

func (m *Manager) doRefresh(ctx context.Context, stale string) int {
	current := m.AccessToken(ctx)
	if current == "" {
		return http.StatusForbidden
	}
	if current != stale {
		// Already rotated by an earlier refresh of the same token.
		return http.StatusOK
	}

	tok, err := m.client.Refresh(ctx, current)
	if err != nil {
		slog.WarnContext(ctx, "token refresh failed", "error", err)
		return http.StatusInternalServerError
	}

	if err := m.SetToken(ctx, tok.AccessToken); err != nil {
		if !errors.Is(err, ErrCookieSync) {
			slog.ErrorContext(ctx, "failed to persist refreshed token", "error", err)
			return http.StatusInternalServerError
		}
		slog.WarnContext(ctx, "refreshed token not propagated to cookie", "error", err)
	}

	slog.DebugContext(ctx, "token refreshed", "token_length", len(tok.AccessToken))
	return http.StatusOK
}

// WithRefresh sends a logical request through send, refreshing and resending once on 401/403.
// It returns nil and ErrSessionExpired when the refresh fails. Errors from send are returned as is.
func (m *Manager) WithRefresh(ctx context.Context, send SendFunc) (*http.Response, error) {
	token := m.AccessToken(ctx)

	refreshed, refreshFailed := false, false
	if m.expiresSoon(token) {
		refreshed = true
		if status := m.refreshFrom(ctx, token); status == http.StatusOK {
			token = m.AccessToken(ctx)
		} else {
			refreshFailed = true
			slog.InfoContext(ctx, "proactive refresh failed", "status", status)
		}
	}

	resp, err := send(ctx, token)
	if err != nil {
		return nil, err
	}
	if !api.IsAuthFailure(resp.StatusCode) {
		return resp, nil
	}
	if refreshFailed {
		// The single refresh is spent and the stale token was rejected.
		discard(resp)
		return nil, ErrSessionExpired
	}
	if refreshed {
		return resp, nil
	}
	discard(resp)

	if status := m.refreshFrom(ctx, token); status != http.StatusOK {
		slog.InfoContext(ctx, "re-authentication failed", "status", status)
		return nil, ErrSessionExpired
	}

	return send(ctx, m.AccessToken(ctx))
}

func (m *Manager) expiresSoon(token string) bool {
	if m.leeway <= 0 {
		return false
	}
	exp, ok := Expiry(token)
	if !ok {
		return false
	}
	return exp.Sub(m.now()) < m.leeway
}

// Exchange trades an OAuth code and state for an access token and stores it in both locations
// before returning. Missing input is rejected with a validation error before any network call.
// When only the cookie write fails, the token is returned together with an ErrCookieSync error.
func (m *Manager) Exchange(ctx context.Context, code, state, provider string) (string, error) {
	if code == "" {
		return "", api.ValidationError("missing authorization code")
	}
	if state == "" {
		return "", api.ValidationError("missing state")
	}
	p, err := api.ParseProvider(provider)
	if err != nil {
		return "", err
	}

	tok, err := m.client.Exchange(ctx, p, code, state)
	if err != nil {
		return "", err
	}

	if err := m.SetToken(ctx, tok.AccessToken); err != nil {
		if errors.Is(err, ErrCookieSync) {
			return tok.AccessToken, err
		}
		return "", api.TransportError("storing access token", err)
	}

	slog.InfoContext(ctx, "signed in", "provider", p)
	return tok.AccessToken, nil
}

// Verify checks the stored token with the API and returns a status surrogate:
// 403 without a token, 200 when valid, 200 or 403 after refreshing a rejected token,
// 500 on transport errors.
func (m *Manager) Verify(ctx context.Context) int {
	token := m.AccessToken(ctx)
	if token == "" {
		return http.StatusForbidden
	}

	if _, err := m.client.Verify(ctx, token); err != nil {
		if api.KindOf(err) == api.KindTransport {
			slog.WarnContext(ctx, "token verification failed", "error", err)
			return http.StatusInternalServerError
		}
		if m.refreshFrom(ctx, token) != http.StatusOK {
			return http.StatusForbidden
		}
		return http.StatusOK
	}
	return http.StatusOK
}

// Logout invalidates the session on the API and, on success, clears both token locations.
// Without a stored token it only clears local state.
func (m *Manager) Logout(ctx context.Context) (int, error) {
	token := m.AccessToken(ctx)
	if token != "" {
		if err := m.client.Logout(ctx, token); err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) {
				return apiErr.Code, err
			}
			return http.StatusInternalServerError, err
		}
	}

	if err := m.ClearToken(ctx); err != nil {
		return http.StatusInternalServerError, err
	}

	slog.InfoContext(ctx, "signed out")
	return http.StatusOK, nil
}

// UserInfo returns the profile of the signed-in user.
func (m *Manager) UserInfo(ctx context.Context) (*api.UserDetails, error) {
	resp, err := m.WithRefresh(ctx, func(ctx context.Context, token string) (*http.Response, error) {
		req, err := m.client.NewUserInfoRequest(ctx, token)
		if err != nil {
			return nil, err
		}
		return m.client.Do(req)
	})
	if err != nil {
		return nil, ExpiredError(err)
	}

	user, err := api.DecodeJSON[api.UserDetails](resp)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// maxDiscard bounds how much of a rejected response is drained to keep the connection reusable.
const maxDiscard = 64 << 10

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDiscard))
	_ = resp.Body.Close()
}
