package marketplace

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/luxoras/storefront/internal/api"
)

// Default search page size and first page.
const (
	DefaultLimit = 10
	DefaultPage  = 1
)

// ListingQuery filters a listing search. Zero values are omitted, except Limit and Page
// which default to DefaultLimit and DefaultPage.
type ListingQuery struct {
	Limit       int    `json:"limit" validate:"gte=0,lte=100"`
	Page        int    `json:"page" validate:"gte=0"`
	Category    string `json:"category"`
	StartPrice  string `json:"startprice" validate:"omitempty,number"`
	EndPrice    string `json:"endprice" validate:"omitempty,number"`
	SearchQuery string `json:"searchquery"`
	Creator     string `json:"creator" validate:"omitempty,uuid"`
}

func (q ListingQuery) values() (url.Values, error) {
	limit, page := q.Limit, q.Page
	if limit == 0 {
		limit = DefaultLimit
	}
	if page == 0 {
		page = DefaultPage
	}

	values := url.Values{}
	if err := api.AddQueryParam(values, "limit", limit); err != nil {
		return nil, err
	}
	if err := api.AddQueryParam(values, "page", page); err != nil {
		return nil, err
	}
	optional := []struct{ name, value string }{
		{"category", q.Category},
		{"startprice", q.StartPrice},
		{"endprice", q.EndPrice},
		{"searchquery", q.SearchQuery},
		{"creator", q.Creator},
	}
	for _, p := range optional {
		if err := api.AddOptionalQueryParam(values, p.name, p.value); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// Listings is the client for the listing endpoints.
type Listings struct {
	requester
}

// NewListings creates a Listings client.
func NewListings(client *api.Client, s Session) *Listings {
	return &Listings{requester: newRequester(client, s)}
}

// Search returns a page of listings matching q. Anonymous callers may search.
func (l *Listings) Search(ctx context.Context, q ListingQuery) ([]api.ProductInfo, error) {
	if err := l.check(q); err != nil {
		return nil, err
	}
	values, err := q.values()
	if err != nil {
		return nil, api.ValidationError(err.Error())
	}

	resp, err := l.sendOptional(ctx, http.MethodGet, "/listings", values)
	if err != nil {
		return nil, err
	}
	return api.DecodeJSON[[]api.ProductInfo](resp)
}

// Get returns a single listing. Anonymous callers may read listings.
func (l *Listings) Get(ctx context.Context, id string) (*api.ProductInfo, error) {
	pid, err := parseID("listing id", id)
	if err != nil {
		return nil, err
	}

	resp, err := l.sendOptional(ctx, http.MethodGet, "/listings/"+pid.String(), nil)
	if err != nil {
		return nil, err
	}
	product, err := api.DecodeJSON[api.ProductInfo](resp)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create publishes a new listing and returns its id.
func (l *Listings) Create(ctx context.Context, product api.Product) (string, error) {
	if err := l.check(product); err != nil {
		return "", err
	}

	resp, err := l.send(ctx, http.MethodPost, "/listings", nil, product)
	if err != nil {
		return "", err
	}
	created, err := api.DecodeJSON[api.CreateListingResponse](resp)
	if err != nil {
		return "", err
	}
	return created.ProductID, nil
}

// Delete removes one of the user's listings.
func (l *Listings) Delete(ctx context.Context, id string) error {
	pid, err := parseID("listing id", id)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("id", pid.String())
	resp, err := l.send(ctx, http.MethodDelete, "/listings", query, nil)
	if err != nil {
		return err
	}
	return api.ExpectOK(resp)
}

// ImageFromBytes encodes raw image data for a listing at position order.
func ImageFromBytes(data []byte, order int) api.ProductImage {
	sum := sha256.Sum256(data)
	return api.ProductImage{
		Image:    base64.StdEncoding.EncodeToString(data),
		Checksum: hex.EncodeToString(sum[:]),
		Order:    order,
	}
}
