package api

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// Exchange trades an OAuth authorization code and state for an access token.
// A 200 response without an access_token field is reported as a KindApplication error.
func (c *Client) Exchange(ctx context.Context, provider Provider, code, state string) (*oauth2.Token, error) {
	query := url.Values{}
	query.Set("code", code)
	query.Set("state", state)

	req, err := c.NewRequest(ctx, http.MethodGet, "/auth/"+string(provider)+"/exchange", query, nil, "")
	if err != nil {
		return nil, TransportError("building exchange request", err)
	}

	return c.doTokenRequest(req)
}

// Refresh asks the API for a new access token. The current token is sent in the
// Authorization header; the refresh cookie, if any, travels through the HTTP client's jar.
func (c *Client) Refresh(ctx context.Context, token string) (*oauth2.Token, error) {
	req, err := c.NewRequest(ctx, c.refreshMethod, "/auth/refresh", nil, nil, token)
	if err != nil {
		return nil, TransportError("building refresh request", err)
	}

	return c.doTokenRequest(req)
}

func (c *Client) doTokenRequest(req *http.Request) (*oauth2.Token, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	body, err := DecodeJSON[AccessTokenResponse](resp)
	if err != nil {
		return nil, err
	}
	if body.AccessToken == "" {
		return nil, &Error{Kind: KindApplication, Code: http.StatusInternalServerError, Message: "response did not contain an access token"}
	}

	return &oauth2.Token{AccessToken: body.AccessToken}, nil
}

// Verify checks token against the verify endpoint.
// An invalid token yields a KindAuth error.
func (c *Client) Verify(ctx context.Context, token string) (*VerifyResponse, error) {
	query := url.Values{}
	query.Set("token", token)

	req, err := c.NewRequest(ctx, http.MethodGet, "/auth/verify", query, nil, "")
	if err != nil {
		return nil, TransportError("building verify request", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	out, err := DecodeJSON[VerifyResponse](resp)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// NewUserInfoRequest builds the profile request for token.
func (c *Client) NewUserInfoRequest(ctx context.Context, token string) (*http.Request, error) {
	return c.NewRequest(ctx, http.MethodGet, "/auth/userinfo", nil, nil, token)
}

// Logout invalidates the server-side session state for token.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := c.NewRequest(ctx, http.MethodPost, "/auth/logout", nil, nil, token)
	if err != nil {
		return TransportError("building logout request", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	return ExpectOK(resp)
}
