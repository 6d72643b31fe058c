package repository

import (
	"fmt"
	"strings"

	"stayhub/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User    UserRepository
	Listing ListingRepository
	Booking BookingRepository
	Payment PaymentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:    NewUserRepository(db, log),
		Listing: NewListingRepository(db, log),
		Booking: NewBookingRepository(db, log),
		Payment: NewPaymentRepository(db, log),
	}
}

// orderClause turns an ordering key like "-price_per_night" into an ORDER BY
// clause using only columns from allowed. Unknown keys fall back to fallback.
func orderClause(ordering string, allowed map[string]string, fallback string) string {
	key := strings.TrimSpace(ordering)
	desc := strings.HasPrefix(key, "-")
	key = strings.TrimPrefix(key, "-")

	column, ok := allowed[key]
	if !ok {
		return " ORDER BY " + fallback
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	// id keeps paging stable when the ordering column has ties
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", column, direction)
}

// ValidOrdering reports whether ordering names a column in allowed.
func ValidOrdering(ordering string, allowed map[string]string) bool {
	if ordering == "" {
		return true
	}
	_, ok := allowed[strings.TrimPrefix(ordering, "-")]
	return ok
}
