// Package session owns the client-side session: the stored access token, its propagation to the
// auth cookie, the refresh protocol and the authenticated request wrapper.
//
// A Manager is the single writer of session state. SetToken updates the token store and then the
// cookie, so callers never have to remember the second write. Refreshes are coalesced: concurrent
// callers that hit 401 with the same token share one network refresh and retry with its result.
//
// WithRefresh implements the retry protocol used by every authenticated call:
//
//	send -> 2xx/4xx/5xx                       return response
//	send -> 401/403 -> refresh ok -> send     return second response, whatever its status
//	send -> 401/403 -> refresh failed         return nil, ErrSessionExpired
//
// No logical call is sent more than twice or refreshes more than once.
package session
