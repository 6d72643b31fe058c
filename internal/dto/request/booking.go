package request

// BookingRequest is the full body for create and PUT. Status is ignored on create.
type BookingRequest struct {
	PropertyID string  `json:"property_id" validate:"required,uuid"`
	StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed canceled"`
}

type PatchBookingRequest struct {
	PropertyID *string `json:"property_id,omitempty" validate:"omitempty,uuid"`
	StartDate  *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate    *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed canceled"`
}

type BookingQuery struct {
	PaginatedRequest
	Status     string `json:"status" validate:"omitempty,oneof=pending confirmed canceled"`
	PropertyID string `json:"property_id" validate:"omitempty,uuid"`
	Ordering   string `json:"ordering"`
}
