package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Kind classifies an Error.
type Kind uint8

const (
	// KindApplication is a non-OK response reported by the API.
	KindApplication Kind = iota
	// KindValidation is missing or invalid input detected before any network call.
	KindValidation
	// KindAuth is a 401/403 response or a session that could not be re-authenticated.
	KindAuth
	// KindTransport is a network failure or an unreadable response.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindTransport:
		return "transport"
	default:
		return "application"
	}
}

// maxErrorBody bounds how much of an error response body is read.
const maxErrorBody = 64 << 10

// Error is the single error shape returned by every network-call wrapper.
// It serializes to the API's {code, message} form.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error %d: %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error %d: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError reports invalid input. Code is always 400.
func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: http.StatusBadRequest, Message: message}
}

// AuthError reports a missing or rejected credential.
func AuthError(code int, message string) *Error {
	return &Error{Kind: KindAuth, Code: code, Message: message}
}

// TransportError wraps a network or decoding failure. Code is always 500.
func TransportError(message string, err error) *Error {
	return &Error{Kind: KindTransport, Code: http.StatusInternalServerError, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindTransport for foreign errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransport
}

// IsAuthFailure reports whether status triggers re-authentication.
func IsAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// errorBody covers both error shapes observed from the API.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// DecodeError converts a non-OK response into an *Error and closes its body.
// The message comes from the JSON body when present, otherwise a generic "HTTP <status>" text.
func DecodeError(resp *http.Response) *Error {
	defer func() { _ = resp.Body.Close() }()

	kind := KindApplication
	if IsAuthFailure(resp.StatusCode) {
		kind = KindAuth
	}

	apiErr := &Error{
		Kind:    kind,
		Code:    resp.StatusCode,
		Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case body.Error != "":
		apiErr.Message = body.Error
	}
	return apiErr
}
