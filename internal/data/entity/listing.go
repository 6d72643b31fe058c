package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Listing struct {
	Base
	HostID        uuid.UUID       `db:"host_id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	Location      string          `db:"location"`
	PricePerNight decimal.Decimal `db:"price_per_night"`
}

func (l *Listing) OwnerID() uuid.UUID {
	return l.HostID
}
