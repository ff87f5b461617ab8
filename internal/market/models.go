package market

import (
	"errors"
	"time"

	"carbon-scribe/impact-ledger/pkg/ledger"
)

// StatusCompleted is the only status a recorded transaction can have
const StatusCompleted = "completed"

// ErrNegativeQuantity rejects a listing that would start with negative stock
var ErrNegativeQuantity = errors.New("listing quantity must not be negative")

// Listing is a quantity of a product offered for sale by a seller
type Listing struct {
	ID                  int64     `json:"id"`
	Seller              string    `json:"seller"`
	OrgID               int64     `json:"org_id"`
	ProductName         string    `json:"product_name"`
	Description         string    `json:"description"`
	Price               float64   `json:"price"`
	Quantity            int64     `json:"quantity"`
	GreenCertification  bool      `json:"green_certification"`
	SustainabilityScore float64   `json:"sustainability_score"`
	ListingDate         time.Time `json:"listing_date"`
	Active              bool      `json:"active"`
}

// ListingData is the seller-supplied part of a listing
type ListingData struct {
	OrgID               int64   `json:"org_id"`
	ProductName         string  `json:"product_name"`
	Description         string  `json:"description"`
	Price               float64 `json:"price"`
	Quantity            int64   `json:"quantity"`
	GreenCertification  bool    `json:"green_certification"`
	SustainabilityScore float64 `json:"sustainability_score"`
}

// Transaction records a completed purchase. ListingID refers to the listing
// at the time of sale; the listing may have changed since.
type Transaction struct {
	ID              int64     `json:"id"`
	Buyer           string    `json:"buyer"`
	Seller          string    `json:"seller"`
	ListingID       int64     `json:"listing_id"`
	Quantity        int64     `json:"quantity"`
	TotalPrice      float64   `json:"total_price"`
	TransactionDate time.Time `json:"transaction_date"`
	Status          string    `json:"status"`
}

// CreateListingResult is returned by CreateListing
type CreateListingResult struct {
	ledger.Result
	ListingID int64 `json:"listing_id,omitempty"`
}

// PurchaseResult is returned by Purchase
type PurchaseResult struct {
	ledger.Result
	TransactionID int64 `json:"transaction_id,omitempty"`
}

// PurchaseRequest is the body of a purchase call
type PurchaseRequest struct {
	Quantity int64 `json:"quantity"`
}

// StatusRequest is the body of a status update
type StatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// Summary aggregates market contents
type Summary struct {
	Listings       int     `json:"listings"`
	ActiveListings int     `json:"active_listings"`
	Transactions   int     `json:"transactions"`
	VolumeTraded   int64   `json:"volume_traded"`
	ValueTraded    float64 `json:"value_traded"`
}

func newListing(id int64, seller string, data ListingData, now time.Time) Listing {
	return Listing{
		ID:                  id,
		Seller:              seller,
		OrgID:               data.OrgID,
		ProductName:         data.ProductName,
		Description:         data.Description,
		Price:               data.Price,
		Quantity:            data.Quantity,
		GreenCertification:  data.GreenCertification,
		SustainabilityScore: data.SustainabilityScore,
		ListingDate:         now,
		Active:              data.Quantity > 0,
	}
}
