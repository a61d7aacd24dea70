package api

import "time"

// AccessTokenResponse is returned by the exchange and refresh endpoints.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// VerifyResponse is returned by the verify endpoint for a valid token.
type VerifyResponse struct {
	Expiry time.Time `json:"exp"`
}

// NullString mirrors the API's nullable string encoding.
type NullString struct {
	Valid  bool   `json:"Valid"`
	String string `json:"String"`
}

// UserDetails is the authenticated user's profile.
type UserDetails struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            NullString `json:"email"`
	ProfileImageLink string     `json:"profile_image_link"`
}

// ProductImage is a base64-encoded listing image.
type ProductImage struct {
	Image    string `json:"base_64_image" validate:"required,base64"`
	Checksum string `json:"checksum,omitempty"`
	Order    int    `json:"order" validate:"gte=0"`
}

// Product is the descriptor sent when creating a listing.
type Product struct {
	Name        string         `json:"name" validate:"required,max=255"`
	Category    string         `json:"category" validate:"required"`
	Description string         `json:"description"`
	Price       float64        `json:"price" validate:"gt=0"`
	Images      []ProductImage `json:"product_images" validate:"min=1,dive"`
}

// ProductInfo is a listing as returned by the search and detail endpoints.
type ProductInfo struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency"`
	Images      []ProductImage `json:"product_images"`
}

// CreateListingResponse carries the id of a new listing.
type CreateListingResponse struct {
	ProductID string `json:"product_id"`
}

// Bid is the payload for placing a bid.
type Bid struct {
	Amount    float64 `json:"amount" validate:"gte=0"`
	Message   string  `json:"message" validate:"max=255"`
	ProductID string  `json:"product_id" validate:"required,uuid"`
}

// BidStatus describes a bid relative to the listing's other bids.
type BidStatus string

const (
	BidStatusActive  BidStatus = "active"
	BidStatusOutbid  BidStatus = "outbid"
	BidStatusWinning BidStatus = "winning"
	BidStatusWon     BidStatus = "won"
	BidStatusLost    BidStatus = "lost"
)

// BidDetails is a bid as returned by the bid listing endpoints.
type BidDetails struct {
	BidID             string    `json:"bid_id"`
	Message           string    `json:"message"`
	CreatedBy         string    `json:"created_by"`
	Amount            float64   `json:"amount"`
	ProductID         string    `json:"product_id"`
	CreatedAt         time.Time `json:"created_at"`
	ProductName       string    `json:"product_name,omitempty"`
	ProductImage      string    `json:"product_image,omitempty"`
	CurrentHighestBid float64   `json:"current_highest_bid,omitempty"`
	Status            BidStatus `json:"bid_status,omitempty"`
}

// CreateBidResponse carries the id of a new bid.
type CreateBidResponse struct {
	BidID string `json:"bid_id"`
}

// SellItemViaBid marks a listing as sold to a bid.
type SellItemViaBid struct {
	BidID  string `json:"bid_id" validate:"required,uuid"`
	ItemID string `json:"item_id" validate:"required,uuid"`
}

// ListingBids groups the bids received on one of the user's listings.
type ListingBids struct {
	ProductID    string       `json:"product_id"`
	ProductName  string       `json:"product_name"`
	ProductImage string       `json:"product_image,omitempty"`
	Bids         []BidDetails `json:"bids"`
}
