package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Device is a piece of lot hardware: an entry or exit gate, or a payment
// kiosk. Devices report status and consumable levels via heartbeats, which
// arrive in bursts and are written through the batch processor.
type Device struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name" validate:"required"`
	Kind          string             `bson:"kind" json:"kind" validate:"required,oneof=entry_gate exit_gate kiosk"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	Status        string             `bson:"status" json:"status"`
	PaperLevel    int                `bson:"paper_level" json:"paperLevel"`
	LastHeartbeat time.Time          `bson:"last_heartbeat" json:"lastHeartbeat"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Device kinds
const (
	DeviceKindEntryGate = "entry_gate"
	DeviceKindExitGate  = "exit_gate"
	DeviceKindKiosk     = "kiosk"
)

// Device status values
const (
	DeviceStatusOnline  = "online"
	DeviceStatusOffline = "offline"
	DeviceStatusFault   = "fault"
)

// PaperLevelRefillThreshold is the percentage below which a kiosk raises a
// paper_refill notification.
const PaperLevelRefillThreshold = 15
