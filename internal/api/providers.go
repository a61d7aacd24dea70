package api

import (
	"fmt"

	"golang.org/x/oauth2"
)

// Provider identifies an OAuth identity provider supported by the API.
type Provider string

const (
	ProviderGitHub Provider = "github"
	ProviderGoogle Provider = "google"
)

// Providers is the closed set of supported providers.
var Providers = []Provider{ProviderGitHub, ProviderGoogle}

// ParseProvider validates s against Providers.
func ParseProvider(s string) (Provider, error) {
	for _, p := range Providers {
		if string(p) == s {
			return p, nil
		}
	}
	return "", ValidationError(fmt.Sprintf("unsupported provider %q", s))
}

// Endpoint returns the API's OAuth endpoints for provider p.
// AuthURL is the redirect entry point; TokenURL exchanges the code for an access token.
func (c *Client) Endpoint(p Provider) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:  c.URL("/auth/"+string(p), nil),
		TokenURL: c.URL("/auth/"+string(p)+"/exchange", nil),
	}
}
