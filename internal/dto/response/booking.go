package response

import (
	"time"

	"stayhub/internal/data/entity"
	"stayhub/pkg/utils"
)

type BookingResponse struct {
	ID         string               `json:"id"`
	PropertyID string               `json:"property_id"`
	UserID     string               `json:"user_id"`
	StartDate  string               `json:"start_date"`
	EndDate    string               `json:"end_date"`
	Nights     int                  `json:"nights"`
	TotalPrice string               `json:"total_price"`
	Status     entity.BookingStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:         booking.ID.String(),
		PropertyID: booking.PropertyID.String(),
		UserID:     booking.UserID.String(),
		StartDate:  booking.StartDate.Format(utils.DateLayout),
		EndDate:    booking.EndDate.Format(utils.DateLayout),
		Nights:     booking.Nights(),
		TotalPrice: booking.TotalPrice.StringFixed(2),
		Status:     booking.Status,
		CreatedAt:  booking.CreatedAt,
		UpdatedAt:  booking.UpdatedAt,
	}
}
