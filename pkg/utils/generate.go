package utils

import (
	"github.com/google/uuid"
)

// TxRefPrefix marks references generated for booking payments so they are
// recognizable in the gateway dashboard.
const TxRefPrefix = "booking-"

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// GenerateTxRef returns a fresh, unguessable payment reference.
// Format: booking-<uuid v4>
func GenerateTxRef() string {
	return TxRefPrefix + uuid.New().String()
}
