// Package overdue maintains the dashboard's overdue-exit alerts: vehicles
// that have paid at a kiosk but not driven out within the grace period.
//
// The transformation functions here are pure; they take a notification
// collection and return the updated one. Persistence and scheduling live in
// the Monitor and the notification repository. The invariant they uphold: at
// most one unresolved overdue_exit notification per session at any time.
package overdue

import (
	"fmt"
	"sort"
	"time"

	"parkhub-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultThreshold is the grace period between payment and physical exit
// before an alert is raised.
const DefaultThreshold = 30 * time.Minute

// Overdue reports whether the session has payment processed, no observed
// exit, and more than threshold elapsed since payment. Sessions with missing
// timestamps are never overdue; malformed input is rejected at ingestion,
// not here.
func Overdue(session *models.Session, now time.Time, threshold time.Duration) bool {
	if session == nil || session.PaymentProcessedTime == nil || session.ExitTime != nil {
		return false
	}
	return now.Sub(*session.PaymentProcessedTime) > threshold
}

// UpsertOverdueAlert prepends a new overdue_exit notification for the session
// unless an unresolved one already exists. The check runs on every call, so
// repeated sweep ticks over the same overdue vehicle leave exactly one
// unresolved record. The returned collection is sorted newest first; the
// second return value reports whether a record was inserted.
func UpsertOverdueAlert(session *models.Session, now time.Time, notifications []models.Notification) ([]models.Notification, bool) {
	if session == nil || session.PaymentProcessedTime == nil || session.ExitTime != nil {
		return notifications, false
	}

	sessionID := session.ID.Hex()
	for _, n := range notifications {
		if n.Type == models.NotificationTypeOverdueExit && n.SessionID == sessionID && !n.Resolved {
			return notifications, false
		}
	}

	minutes := int(now.Sub(*session.PaymentProcessedTime).Minutes())
	record := models.Notification{
		ID:            primitive.NewObjectID(),
		Type:          models.NotificationTypeOverdueExit,
		SessionID:     sessionID,
		VehicleNumber: session.VehicleNumber,
		Message:       fmt.Sprintf("Vehicle %s paid %d minutes ago but has not exited", session.VehicleNumber, minutes),
		Timestamp:     now,
		Read:          false,
		Resolved:      false,
	}

	updated := make([]models.Notification, 0, len(notifications)+1)
	updated = append(updated, record)
	updated = append(updated, notifications...)
	sortNewestFirst(updated)
	return updated, true
}

// ResolveOverdueAlerts marks every unresolved overdue_exit record for the
// session as resolved and read. Called whenever the vehicle's exit is
// observed, regardless of which code path produced it. Returns the updated
// collection and the number of records resolved.
func ResolveOverdueAlerts(sessionID string, now time.Time, notifications []models.Notification) ([]models.Notification, int) {
	resolved := 0
	for i := range notifications {
		n := &notifications[i]
		if n.Type == models.NotificationTypeOverdueExit && n.SessionID == sessionID && !n.Resolved {
			n.Resolved = true
			n.Read = true
			at := now
			n.ResolvedAt = &at
			resolved++
		}
	}
	return notifications, resolved
}

// ClearReadAndResolved drops the records an explicit clear may remove:
// overdue_exit records that are both read and resolved, and records of other
// types that are read. An unread-but-resolved overdue alert stays so the
// operator still sees it was resolved.
func ClearReadAndResolved(notifications []models.Notification) []models.Notification {
	kept := make([]models.Notification, 0, len(notifications))
	for _, n := range notifications {
		if !n.Clearable() {
			kept = append(kept, n)
		}
	}
	return kept
}

// RepairDuplicates restores the single-unresolved-per-session invariant if it
// has somehow been violated: all but the newest unresolved overdue_exit
// record per session are resolved in place. Returns the number of records
// repaired; zero means the invariant held.
func RepairDuplicates(now time.Time, notifications []models.Notification) int {
	sortNewestFirst(notifications)

	repaired := 0
	seen := make(map[string]bool)
	for i := range notifications {
		n := &notifications[i]
		if n.Type != models.NotificationTypeOverdueExit || n.Resolved {
			continue
		}
		if seen[n.SessionID] {
			n.Resolved = true
			n.Read = true
			at := now
			n.ResolvedAt = &at
			repaired++
			continue
		}
		seen[n.SessionID] = true
	}
	return repaired
}

// UnresolvedCount returns the number of unresolved overdue_exit records for
// the session. The engine's invariant keeps this at zero or one.
func UnresolvedCount(sessionID string, notifications []models.Notification) int {
	count := 0
	for _, n := range notifications {
		if n.Type == models.NotificationTypeOverdueExit && n.SessionID == sessionID && !n.Resolved {
			count++
		}
	}
	return count
}

func sortNewestFirst(notifications []models.Notification) {
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].Timestamp.After(notifications[j].Timestamp)
	})
}
