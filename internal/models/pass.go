package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pass is a long-term parking entitlement. Sessions opened for a vehicle with
// a valid pass skip the fee calculator entirely.
type Pass struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HolderName    string             `bson:"holder_name" json:"holderName" validate:"required"`
	VehicleNumber string             `bson:"vehicle_number" json:"vehicleNumber" validate:"required"`
	Type          string             `bson:"type" json:"type" validate:"required,oneof=monthly contract staff"`
	ValidFrom     time.Time          `bson:"valid_from" json:"validFrom"`
	ValidUntil    time.Time          `bson:"valid_until" json:"validUntil"`
	Active        bool               `bson:"active" json:"active"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Pass types
const (
	PassTypeMonthly  = "monthly"
	PassTypeContract = "contract"
	PassTypeStaff    = "staff"
)

// ValidAt reports whether the pass covers the given instant.
func (p *Pass) ValidAt(t time.Time) bool {
	return p.Active && !t.Before(p.ValidFrom) && !t.After(p.ValidUntil)
}
