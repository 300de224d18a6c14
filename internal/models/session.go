package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session represents one stay of a vehicle in the lot, from entry scan to
// physical exit. EntryTime is set once at creation and never changes.
// PaymentProcessedTime may be set while ExitTime is still absent: the vehicle
// has paid at the kiosk but has not driven out yet. That window is what the
// overdue monitor watches.
type Session struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleNumber        string             `bson:"vehicle_number" json:"vehicleNumber" validate:"required"`
	VehicleType          string             `bson:"vehicle_type" json:"vehicleType"`
	PassID               string             `bson:"pass_id,omitempty" json:"passId,omitempty"`
	BookingCode          string             `bson:"booking_code,omitempty" json:"bookingCode,omitempty"`
	EntryDeviceID        string             `bson:"entry_device_id,omitempty" json:"entryDeviceId,omitempty"`
	ExitDeviceID         string             `bson:"exit_device_id,omitempty" json:"exitDeviceId,omitempty"`
	EntryTime            time.Time          `bson:"entry_time" json:"entryTime"`
	ExitTime             *time.Time         `bson:"exit_time,omitempty" json:"exitTime,omitempty"`
	PaymentProcessedTime *time.Time         `bson:"payment_processed_time,omitempty" json:"paymentProcessedTime,omitempty"`
	Amount               float64            `bson:"amount" json:"amount"`
	PaymentMethod        string             `bson:"payment_method,omitempty" json:"paymentMethod,omitempty"`
	WaiverReason         string             `bson:"waiver_reason,omitempty" json:"waiverReason,omitempty"`
	Status               string             `bson:"status" json:"status"`
	CreatedAt            time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Session status values
const (
	SessionStatusParked = "parked"
	SessionStatusPaid   = "paid"
	SessionStatusExited = "exited"
)

// Vehicle types; staff and contracted vehicles are fee-exempt
const (
	VehicleTypeCar        = "car"
	VehicleTypeMotorcycle = "motorcycle"
	VehicleTypeTruck      = "truck"
	VehicleTypeStaff      = "staff"
	VehicleTypeContracted = "contracted"
)

// Payment methods
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodMobile = "mobile"
	PaymentMethodWaiver = "waiver"
)

// FeeExempt reports whether this session's vehicle category is configured as
// zero-rate.
func (s *Session) FeeExempt() bool {
	return s.VehicleType == VehicleTypeStaff || s.VehicleType == VehicleTypeContracted
}

// Parked reports whether the vehicle is still physically in the lot.
func (s *Session) Parked() bool {
	return s.ExitTime == nil
}

// Paid reports whether payment (or a waiver) has been processed.
func (s *Session) Paid() bool {
	return s.PaymentProcessedTime != nil
}
