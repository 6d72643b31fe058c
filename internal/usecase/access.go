package usecase

import (
	"context"

	"stayhub/internal/data/entity"
	"stayhub/pkg/utils"

	"github.com/google/uuid"
)

// Caller is the identity a request acts as. Role is carried for display and
// logging only; no capability depends on it.
type Caller struct {
	ID            uuid.UUID
	Role          entity.UserRole
	Email         string
	Authenticated bool
}

// CallerFromContext reads the identity placed by the auth middleware.
func CallerFromContext(ctx context.Context) Caller {
	id, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return Caller{}
	}
	role, _ := utils.GetRoleFromContext(ctx)
	email, _ := utils.GetEmailFromContext(ctx)
	return Caller{ID: id, Role: entity.UserRole(role), Email: email, Authenticated: true}
}

type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionPay    Action = "pay"
)

// AuthorizeListing lets anyone read; only the host may change or remove it.
func AuthorizeListing(caller Caller, listing *entity.Listing, action Action) error {
	if action == ActionRead {
		return nil
	}
	if !caller.Authenticated {
		return ErrUnauthorized
	}
	if listing.HostID != caller.ID {
		return ErrForbidden
	}
	return nil
}

// AuthorizeBooking allows every action to the booking's user only. Other
// callers see the booking as missing.
func AuthorizeBooking(caller Caller, booking *entity.Booking, action Action) error {
	if !caller.Authenticated {
		return ErrUnauthorized
	}
	if booking.UserID != caller.ID {
		return notFound("booking")
	}
	return nil
}

// AuthorizePayment follows ownership through the payment's booking.
func AuthorizePayment(caller Caller, booking *entity.Booking, action Action) error {
	if !caller.Authenticated {
		return ErrUnauthorized
	}
	if booking == nil || booking.UserID != caller.ID {
		return notFound("payment")
	}
	return nil
}
