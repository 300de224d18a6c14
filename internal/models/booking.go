package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking is an advance reservation of a parking spot. The code is handed to
// the customer and redeemed at the entry gate.
type Booking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `bson:"code" json:"code"`
	VehicleNumber string             `bson:"vehicle_number" json:"vehicleNumber" validate:"required"`
	VehicleType   string             `bson:"vehicle_type" json:"vehicleType" validate:"required,oneof=car motorcycle truck"`
	FullName      string             `bson:"full_name" json:"fullName" validate:"required"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	StartTime     time.Time          `bson:"start_time" json:"startTime"`
	EndTime       time.Time          `bson:"end_time" json:"endTime"`
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Booking status values
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusClaimed   = "claimed"
	BookingStatusCancelled = "cancelled"
	BookingStatusExpired   = "expired"
)
