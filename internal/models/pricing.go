package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PricingTier is one duration bracket of a plan. UnitPrice is charged per
// hour across the bracket; a day bracket spans DurationValue*24 hours but is
// still priced per hour-equivalent.
type PricingTier struct {
	DurationValue int     `bson:"duration_value" json:"durationValue" validate:"required,min=1"`
	DurationUnit  string  `bson:"duration_unit" json:"durationUnit" validate:"required,oneof=hour day"`
	UnitPrice     float64 `bson:"unit_price" json:"unitPrice" validate:"min=0"`
}

// Duration units for pricing tiers
const (
	DurationUnitHour = "hour"
	DurationUnitDay  = "day"
)

// Hours returns the bracket length normalized to whole hours.
func (t PricingTier) Hours() int {
	if t.DurationUnit == DurationUnitDay {
		return t.DurationValue * 24
	}
	return t.DurationValue
}

// PricingPlan groups tiers for a vehicle category. Tiers keep their insertion
// order; the calculator sorts a copy by effective hour length before use.
// Exactly one plan per vehicle type is active at a time.
type PricingPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name" validate:"required,min=1,max=100"`
	VehicleType string             `bson:"vehicle_type" json:"vehicleType" validate:"required,oneof=car motorcycle truck"`
	Tiers       []PricingTier      `bson:"tiers" json:"tiers" validate:"dive"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
