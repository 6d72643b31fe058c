package request

import "github.com/shopspring/decimal"

// ListingRequest is the full body for create and PUT.
type ListingRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	Description   string           `json:"description" validate:"required"`
	Location      string           `json:"location" validate:"required,max=255"`
	PricePerNight *decimal.Decimal `json:"price_per_night" validate:"required"`
}

type PatchListingRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,min=1"`
	Location      *string          `json:"location,omitempty" validate:"omitempty,min=1,max=255"`
	PricePerNight *decimal.Decimal `json:"price_per_night,omitempty"`
}

// ListingQuery carries list filters read from the query string.
type ListingQuery struct {
	PaginatedRequest
	Name     string `json:"name" validate:"omitempty,max=200"`
	Location string `json:"location" validate:"omitempty,max=255"`
	MinPrice string `json:"min_price" validate:"omitempty,numeric"`
	MaxPrice string `json:"max_price" validate:"omitempty,numeric"`
	HostID   string `json:"host_id" validate:"omitempty,uuid"`
	Search   string `json:"search" validate:"omitempty,max=200"`
	Ordering string `json:"ordering"`
}
