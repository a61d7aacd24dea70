package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/luxoras/storefront/internal/api"
)

// Bids is the client for the bidding endpoints.
type Bids struct {
	requester
}

// NewBids creates a Bids client.
func NewBids(client *api.Client, s Session) *Bids {
	return &Bids{requester: newRequester(client, s)}
}

// Place submits a bid and returns its id.
func (b *Bids) Place(ctx context.Context, bid api.Bid) (string, error) {
	if err := b.check(bid); err != nil {
		return "", err
	}

	resp, err := b.send(ctx, http.MethodPost, "/listings/bid", nil, bid)
	if err != nil {
		return "", err
	}
	created, err := api.DecodeJSON[api.CreateBidResponse](resp)
	if err != nil {
		return "", err
	}
	return created.BidID, nil
}

// ForProduct returns a page of bids on a listing.
func (b *Bids) ForProduct(ctx context.Context, productID string, limit, page int) ([]api.BidDetails, error) {
	pid, err := parseID("product id", productID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || page <= 0 {
		return nil, api.ValidationError(fmt.Sprintf("limit and page must be positive, got %d and %d", limit, page))
	}

	query := url.Values{}
	query.Set("productid", pid.String())
	if err := api.AddQueryParam(query, "limit", limit); err != nil {
		return nil, api.ValidationError(err.Error())
	}
	if err := api.AddQueryParam(query, "page", page); err != nil {
		return nil, api.ValidationError(err.Error())
	}

	resp, err := b.send(ctx, http.MethodGet, "/listings/bids", query, nil)
	if err != nil {
		return nil, err
	}
	return api.DecodeJSON[[]api.BidDetails](resp)
}

// Highest returns the highest bid on a listing.
func (b *Bids) Highest(ctx context.Context, productID string) (*api.BidDetails, error) {
	pid, err := parseID("product id", productID)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("productid", pid.String())
	resp, err := b.send(ctx, http.MethodGet, "/listings/highest-bid", query, nil)
	if err != nil {
		return nil, err
	}
	bid, err := api.DecodeJSON[api.BidDetails](resp)
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// Accept sells the listing productID to the bid bidID.
func (b *Bids) Accept(ctx context.Context, bidID, productID string) error {
	sale := api.SellItemViaBid{BidID: bidID, ItemID: productID}
	if err := b.check(sale); err != nil {
		return err
	}

	resp, err := b.send(ctx, http.MethodPut, "/listings/sold/bid", nil, sale)
	if err != nil {
		return err
	}
	return api.ExpectOK(resp)
}

// Mine lists the user's own bids filtered by status.
// The API has no endpoint for it yet.
func (b *Bids) Mine(context.Context, api.BidStatus) ([]api.BidDetails, error) {
	return nil, ErrNotImplemented
}

// Incoming lists bids received on the user's listings.
// The API has no endpoint for it yet.
func (b *Bids) Incoming(context.Context) ([]api.ListingBids, error) {
	return nil, ErrNotImplemented
}
