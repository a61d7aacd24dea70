package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/luxoras/storefront/internal/tokenstore"
)

// PersistentJar is a cookie jar whose cookies for one origin, the API, outlive the process.
// They are saved to a TokenStore as a Cookie header value after every update from that origin,
// so the refresh cookie set at sign-in is still sent by later runs.
type PersistentJar struct {
	jar    http.CookieJar
	origin *url.URL
	store  tokenstore.TokenStore

	mu sync.Mutex
}

// Compile-time check that PersistentJar implements http.CookieJar.
var _ http.CookieJar = (*PersistentJar)(nil)

// NewPersistentJar creates a jar for origin seeded with the cookies saved in store.
// Unreadable saved cookies are discarded.
func NewPersistentJar(ctx context.Context, origin string, store tokenstore.TokenStore) (*PersistentJar, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid cookie origin %q", origin)
	}
	jar, err := NewCookieJar()
	if err != nil {
		return nil, err
	}

	saved, err := store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading saved cookies: %w", err)
	}
	if saved != "" {
		cookies, err := http.ParseCookie(saved)
		if err != nil {
			slog.WarnContext(ctx, "discarding saved cookies", "error", err)
		} else {
			for _, c := range cookies {
				c.Path = "/"
			}
			jar.SetCookies(u, cookies)
		}
	}

	return &PersistentJar{jar: jar, origin: u, store: store}, nil
}

func (p *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return p.jar.Cookies(u)
}

func (p *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	p.jar.SetCookies(u, cookies)
	if !strings.EqualFold(u.Hostname(), p.origin.Hostname()) {
		return
	}
	// CookieJar has no context parameter
	if err := p.save(context.Background()); err != nil {
		slog.Warn("failed to save cookies", "error", err)
	}
}

// save writes the origin's current cookies, or deletes the saved copy when none are left.
func (p *PersistentJar) save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cookies := p.jar.Cookies(p.origin)
	if len(cookies) == 0 {
		return p.store.Delete(ctx)
	}

	pairs := make([]string, len(cookies))
	for i, c := range cookies {
		pairs[i] = (&http.Cookie{Name: c.Name, Value: c.Value}).String()
	}
	return p.store.Write(ctx, strings.Join(pairs, "; "))
}
