package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/marketplace"
	"github.com/luxoras/storefront/internal/session"
)

// LoaderResponse is the data a server-rendered page needs before rendering.
// RequireRefresh tells the page to run a client-side refresh and load again.
type LoaderResponse struct {
	RequireRefresh bool              `json:"require_refresh"`
	User           *api.UserDetails  `json:"user,omitempty"`
	Listings       []api.ProductInfo `json:"listings,omitempty"`
	Listing        *api.ProductInfo  `json:"listing,omitempty"`
}

// writeLoader answers a loader: an expired session becomes require_refresh, other errors keep
// their API status.
func writeLoader(ctx context.Context, w http.ResponseWriter, resp LoaderResponse, err error) {
	if errors.Is(err, session.ErrSessionExpired) {
		writeJSON(ctx, w, LoaderResponse{RequireRefresh: true}, http.StatusOK)
		return
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, resp, http.StatusOK)
}

// handleSession reports the signed-in user, or require_refresh when the cookie is missing or stale.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := tokenFrom(s.cookie, r)
	if token == "" {
		writeJSON(ctx, w, LoaderResponse{RequireRefresh: true}, http.StatusOK)
		return
	}

	client := s.clientFor(r)
	resp, err := session.NewFixed(token).WithRefresh(ctx, func(ctx context.Context, token string) (*http.Response, error) {
		req, err := client.NewUserInfoRequest(ctx, token)
		if err != nil {
			return nil, api.TransportError("building userinfo request", err)
		}
		return client.Do(req)
	})
	if err != nil {
		writeLoader(ctx, w, LoaderResponse{}, err)
		return
	}

	user, err := api.DecodeJSON[api.UserDetails](resp)
	writeLoader(ctx, w, LoaderResponse{User: &user}, err)
}

// handleListings searches listings with the query parameters of the page.
func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	values := r.URL.Query()

	query := marketplace.ListingQuery{
		Category:    values.Get("category"),
		StartPrice:  values.Get("startprice"),
		EndPrice:    values.Get("endprice"),
		SearchQuery: values.Get("searchquery"),
		Creator:     values.Get("creator"),
	}
	var err error
	if query.Limit, err = intParam(values.Get("limit")); err != nil {
		writeError(ctx, w, api.ValidationError("invalid limit"))
		return
	}
	if query.Page, err = intParam(values.Get("page")); err != nil {
		writeError(ctx, w, api.ValidationError("invalid page"))
		return
	}

	listings := marketplace.NewListings(s.clientFor(r), session.NewFixed(tokenFrom(s.cookie, r)))
	products, err := listings.Search(ctx, query)
	writeLoader(ctx, w, LoaderResponse{Listings: products}, err)
}

// handleListing loads a single listing.
func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listings := marketplace.NewListings(s.clientFor(r), session.NewFixed(tokenFrom(s.cookie, r)))
	product, err := listings.Get(ctx, chi.URLParam(r, "id"))
	writeLoader(ctx, w, LoaderResponse{Listing: product}, err)
}

func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
