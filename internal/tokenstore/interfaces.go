package tokenstore

import (
	"context"
	"errors"
)

// DefaultKey is the single key under which the access token is persisted.
const DefaultKey = "AT"

// CookiesKey is the key under which the API's cookies are persisted next to the token.
const CookiesKey = "cookies"

// ErrReadOnly is returned by Write and Delete on backends that cannot be modified.
var ErrReadOnly = errors.New("token storage is read-only")

// TokenStore reads and writes the access token to persistent storage.
type TokenStore interface {
	// Read returns the stored token, or "" if none is stored.
	Read(ctx context.Context) (string, error)

	// Write overwrites the stored token.
	Write(ctx context.Context, token string) error

	// Delete removes the stored token. Deleting an absent token is not an error.
	Delete(ctx context.Context) error
}
