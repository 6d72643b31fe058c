package response

import (
	"time"

	"stayhub/internal/data/entity"
)

type ListingResponse struct {
	ID            string    `json:"id"`
	HostID        string    `json:"host_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	PricePerNight string    `json:"price_per_night"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func ListingToResponse(listing *entity.Listing) ListingResponse {
	return ListingResponse{
		ID:            listing.ID.String(),
		HostID:        listing.HostID.String(),
		Name:          listing.Name,
		Description:   listing.Description,
		Location:      listing.Location,
		PricePerNight: listing.PricePerNight.StringFixed(2),
		CreatedAt:     listing.CreatedAt,
		UpdatedAt:     listing.UpdatedAt,
	}
}
