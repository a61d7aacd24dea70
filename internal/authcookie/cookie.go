// Package authcookie reads and writes the HTTP-only cookie that carries the access token to
// server-rendered page loads.
//
// Cookie values use the encoding of the original web frontend (base64 of a JSON string), so
// cookies written by either side stay readable. Extraction never fails: a missing or malformed
// cookie is reported as absent.
package authcookie

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultName is the current cookie name.
	DefaultName = "LUXORA_ACCESS_TOKEN"
	// LegacyName was used by earlier frontend revisions and is still accepted on read.
	LegacyName = "auth-token"
	// DefaultMaxAge matches the access token lifetime issued by the API.
	DefaultMaxAge = time.Hour
)

// Codec describes the auth cookie and how its value is encoded.
type Codec struct {
	name        string
	legacyNames []string
	maxAge      time.Duration
	secure      bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithName overrides the cookie name.
func WithName(name string) Option {
	return func(c *Codec) {
		c.name = name
	}
}

// WithLegacyNames sets additional names consulted by Extract when the primary cookie is absent.
func WithLegacyNames(names ...string) Option {
	return func(c *Codec) {
		c.legacyNames = names
	}
}

// WithMaxAge overrides the cookie lifetime.
func WithMaxAge(maxAge time.Duration) Option {
	return func(c *Codec) {
		c.maxAge = maxAge
	}
}

// WithSecure controls the Secure attribute. Development setups over plain HTTP disable it.
func WithSecure(secure bool) Option {
	return func(c *Codec) {
		c.secure = secure
	}
}

// New creates a Codec. Defaults: DefaultName, LegacyName accepted on read, DefaultMaxAge, Secure.
func New(opts ...Option) *Codec {
	c := &Codec{
		name:        DefaultName,
		legacyNames: []string{LegacyName},
		maxAge:      DefaultMaxAge,
		secure:      true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the cookie name written by Set.
func (c *Codec) Name() string {
	return c.name
}

// Secure reports whether written cookies carry the Secure attribute.
func (c *Codec) Secure() bool {
	return c.secure
}

// WithSecure returns a copy of c with the Secure attribute set to secure.
func (c *Codec) WithSecure(secure bool) *Codec {
	cp := *c
	cp.secure = secure
	return &cp
}

// Extract returns the token carried by the request's auth cookie.
// The second return value is false if the cookie is missing or malformed.
func (c *Codec) Extract(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}

	names := append([]string{c.name}, c.legacyNames...)
	for _, name := range names {
		cookie, err := r.Cookie(name)
		if err != nil {
			continue
		}
		if token, ok := Decode(cookie.Value); ok {
			return token, true
		}
	}
	return "", false
}

// Cookie builds the Set-Cookie value for token.
func (c *Codec) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    Encode(token),
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Set writes the auth cookie carrying token.
func (c *Codec) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.Cookie(token))
}

// Clear expires the auth cookie.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Encode serializes token as base64 of its JSON string form.
func Encode(token string) string {
	data, _ := json.Marshal(token) // marshaling a string cannot fail
	return base64.StdEncoding.EncodeToString(data)
}

// Decode reverses Encode. Percent-escaped values (as written by browsers' frameworks) are accepted.
func Decode(value string) (string, bool) {
	if value == "" {
		return "", false
	}

	if unescaped, err := url.PathUnescape(value); err == nil {
		value = unescaped
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", false
	}

	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return "", false
	}
	if token == "" {
		return "", false
	}
	return token, true
}
