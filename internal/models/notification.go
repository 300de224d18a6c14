package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is an entry in the dashboard's alert feed. For overdue_exit
// notifications SessionID links back to the watched parking session; at most
// one unresolved overdue_exit record may exist per session at any time.
// Fire-and-forget types such as paper_refill are created already resolved.
type Notification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type          string             `bson:"type" json:"type" validate:"required,oneof=overdue_exit paper_refill device_offline"`
	SessionID     string             `bson:"session_id,omitempty" json:"sessionId,omitempty"`
	VehicleNumber string             `bson:"vehicle_number,omitempty" json:"vehicleNumber,omitempty"`
	Message       string             `bson:"message" json:"message" validate:"required"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	Read          bool               `bson:"read" json:"read"`
	Resolved      bool               `bson:"resolved" json:"resolved"`
	ResolvedAt    *time.Time         `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
}

// Notification types
const (
	NotificationTypeOverdueExit   = "overdue_exit"
	NotificationTypePaperRefill   = "paper_refill"
	NotificationTypeDeviceOffline = "device_offline"
)

// Clearable reports whether an explicit clear operation may drop this record.
// Overdue alerts are kept until both read and resolved so the feed still
// shows a resolved-but-unread alert; other types only gate on read.
func (n *Notification) Clearable() bool {
	if n.Type == NotificationTypeOverdueExit {
		return n.Read && n.Resolved
	}
	return n.Read
}
