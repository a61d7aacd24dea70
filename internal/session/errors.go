package session

import (
	"errors"
	"net/http"

	"github.com/luxoras/storefront/internal/api"
)

var (
	// ErrSessionExpired is returned when an auth failure could not be recovered by a refresh.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoToken is returned by Token when no access token is stored.
	ErrNoToken = errors.New("no token found")

	// ErrCookieSync wraps failures to propagate the token to the auth cookie.
	// The token store has already been updated when it is returned.
	ErrCookieSync = errors.New("cookie sync failed")
)

// ExpiredError converts ErrSessionExpired into the API error shape shown to users.
// Other errors are returned unchanged.
func ExpiredError(err error) error {
	if !errors.Is(err, ErrSessionExpired) {
		return err
	}
	return &api.Error{
		Kind:    api.KindAuth,
		Code:    http.StatusUnauthorized,
		Message: "please log in again",
		Err:     err,
	}
}
