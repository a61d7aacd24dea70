package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/session"
)

// ErrNotImplemented is returned by operations whose API endpoint does not exist yet.
var ErrNotImplemented = errors.New("endpoint not implemented by the API")

// Session supplies the access token and the re-authenticating request wrapper.
// *session.Manager and *session.Fixed implement it.
type Session interface {
	AccessToken(ctx context.Context) string
	WithRefresh(ctx context.Context, send session.SendFunc) (*http.Response, error)
}

var (
	_ Session = (*session.Manager)(nil)
	_ Session = (*session.Fixed)(nil)
)

// requester sends requests on behalf of a session.
type requester struct {
	client   *api.Client
	session  Session
	validate *validator.Validate
}

func newRequester(client *api.Client, s Session) requester {
	return requester{client: client, session: s, validate: newValidator()}
}

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates s and converts the first failure into a validation error.
func (r requester) check(s any) error {
	err := r.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return api.ValidationError(fmt.Sprintf("invalid %s: failed %s validation", fe.Namespace(), fe.Tag()))
	}
	return api.ValidationError(err.Error())
}

// send performs an authenticated call. Anonymous callers are rejected before any network call.
func (r requester) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	if r.session.AccessToken(ctx) == "" {
		return nil, api.AuthError(http.StatusUnauthorized, "no token found")
	}
	return r.sendWithSession(ctx, method, path, query, body)
}

// sendOptional performs a call that is also allowed without a token. Anonymous calls are sent once.
func (r requester) sendOptional(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	if r.session.AccessToken(ctx) == "" {
		return r.sendFunc(method, path, query, nil)(ctx, "")
	}
	return r.sendWithSession(ctx, method, path, query, nil)
}

func (r requester) sendWithSession(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	resp, err := r.session.WithRefresh(ctx, r.sendFunc(method, path, query, body))
	if err != nil {
		return nil, session.ExpiredError(err)
	}
	return resp, nil
}

func (r requester) sendFunc(method, path string, query url.Values, body any) session.SendFunc {
	return func(ctx context.Context, token string) (*http.Response, error) {
		req, err := r.client.NewRequest(ctx, method, path, query, body, token)
		if err != nil {
			return nil, api.TransportError("building request", err)
		}
		return r.client.Do(req)
	}
}

func parseID(name, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, api.ValidationError(fmt.Sprintf("invalid %s %q", name, id))
	}
	return parsed, nil
}
