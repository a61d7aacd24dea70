// Package api is a thin client for the remote marketplace API.
//
// It owns URL construction, the Authorization header format, JSON wire models and the
// translation of failures into *Error values. It does not retry and does not manage token
// state; callers pass the token they want attached. Session handling lives in package session.
//
// # Errors
//
// Every failure is reported as an *Error carrying a Kind, an HTTP-like Code and a Message:
//
//	var apiErr *api.Error
//	if errors.As(err, &apiErr) && apiErr.Kind == api.KindAuth {
//		// ask the user to log in again
//	}
package api
