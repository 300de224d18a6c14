package overdue

import (
	"testing"
	"time"

	"parkhub-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func paidSession(paidAgo time.Duration, now time.Time) *models.Session {
	paidAt := now.Add(-paidAgo)
	return &models.Session{
		ID:                   primitive.NewObjectID(),
		VehicleNumber:        "KDA 123X",
		VehicleType:          models.VehicleTypeCar,
		EntryTime:            now.Add(-2 * time.Hour),
		PaymentProcessedTime: &paidAt,
		Status:               models.SessionStatusPaid,
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, Overdue(paidSession(31*time.Minute, now), now, DefaultThreshold))
	assert.False(t, Overdue(paidSession(30*time.Minute, now), now, DefaultThreshold))
	assert.False(t, Overdue(paidSession(5*time.Minute, now), now, DefaultThreshold))

	// Not yet paid: never overdue.
	unpaid := paidSession(time.Hour, now)
	unpaid.PaymentProcessedTime = nil
	assert.False(t, Overdue(unpaid, now, DefaultThreshold))

	// Already exited: never overdue.
	exited := paidSession(time.Hour, now)
	exitAt := now.Add(-10 * time.Minute)
	exited.ExitTime = &exitAt
	assert.False(t, Overdue(exited, now, DefaultThreshold))

	assert.False(t, Overdue(nil, now, DefaultThreshold))
}

func TestUpsertOverdueAlert_DedupAcrossTicks(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	session := paidSession(45*time.Minute, now)

	var notifications []models.Notification

	// Many sweep ticks over the same overdue vehicle produce exactly one
	// unresolved record.
	for tick := 0; tick < 10; tick++ {
		at := now.Add(time.Duration(tick) * time.Minute)
		updated, inserted := UpsertOverdueAlert(session, at, notifications)
		notifications = updated
		if tick == 0 {
			assert.True(t, inserted)
		} else {
			assert.False(t, inserted)
		}
	}

	require.Len(t, notifications, 1)
	assert.Equal(t, 1, UnresolvedCount(session.ID.Hex(), notifications))
	assert.Equal(t, models.NotificationTypeOverdueExit, notifications[0].Type)
	assert.Equal(t, session.VehicleNumber, notifications[0].VehicleNumber)
	assert.False(t, notifications[0].Read)
	assert.False(t, notifications[0].Resolved)
}

func TestUpsertOverdueAlert_NewAlertAfterResolution(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	session := paidSession(45*time.Minute, now)

	notifications, inserted := UpsertOverdueAlert(session, now, nil)
	require.True(t, inserted)

	notifications, resolved := ResolveOverdueAlerts(session.ID.Hex(), now.Add(time.Minute), notifications)
	require.Equal(t, 1, resolved)

	// A resolved record does not block a later insert; resolved history for
	// the same session may coexist with a fresh unresolved alert.
	notifications, inserted = UpsertOverdueAlert(session, now.Add(2*time.Minute), notifications)
	assert.True(t, inserted)
	assert.Len(t, notifications, 2)
	assert.Equal(t, 1, UnresolvedCount(session.ID.Hex(), notifications))
}

func TestUpsertOverdueAlert_GuardsPreconditions(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	unpaid := paidSession(time.Hour, now)
	unpaid.PaymentProcessedTime = nil
	_, inserted := UpsertOverdueAlert(unpaid, now, nil)
	assert.False(t, inserted)

	exited := paidSession(time.Hour, now)
	exitAt := now
	exited.ExitTime = &exitAt
	_, inserted = UpsertOverdueAlert(exited, now, nil)
	assert.False(t, inserted)
}

func TestUpsertOverdueAlert_OrderingNewestFirst(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var notifications []models.Notification
	for i := 0; i < 4; i++ {
		session := paidSession(45*time.Minute, now)
		at := now.Add(time.Duration(i) * time.Minute)
		updated, inserted := UpsertOverdueAlert(session, at, notifications)
		require.True(t, inserted)
		notifications = updated
	}

	require.Len(t, notifications, 4)
	for i := 1; i < len(notifications); i++ {
		assert.False(t, notifications[i-1].Timestamp.Before(notifications[i].Timestamp),
			"collection must stay sorted descending by timestamp")
	}
}

func TestResolveOverdueAlerts(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	session := paidSession(45*time.Minute, now)
	other := paidSession(45*time.Minute, now)

	notifications, _ := UpsertOverdueAlert(session, now, nil)
	notifications, _ = UpsertOverdueAlert(other, now.Add(time.Second), notifications)

	resolvedAt := now.Add(5 * time.Minute)
	notifications, resolved := ResolveOverdueAlerts(session.ID.Hex(), resolvedAt, notifications)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 0, UnresolvedCount(session.ID.Hex(), notifications))

	// The other vehicle's alert is untouched.
	assert.Equal(t, 1, UnresolvedCount(other.ID.Hex(), notifications))

	for _, n := range notifications {
		if n.SessionID == session.ID.Hex() {
			assert.True(t, n.Resolved)
			assert.True(t, n.Read)
			require.NotNil(t, n.ResolvedAt)
			assert.Equal(t, resolvedAt, *n.ResolvedAt)
		}
	}
}

func TestClearReadAndResolved_RetentionAsymmetry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	notifications := []models.Notification{
		// Unread but resolved overdue alert: kept, so the operator sees it
		// was resolved.
		{ID: primitive.NewObjectID(), Type: models.NotificationTypeOverdueExit, SessionID: "a", Timestamp: now, Read: false, Resolved: true},
		// Read and resolved overdue alert: droppable.
		{ID: primitive.NewObjectID(), Type: models.NotificationTypeOverdueExit, SessionID: "b", Timestamp: now, Read: true, Resolved: true},
		// Read but unresolved overdue alert: kept.
		{ID: primitive.NewObjectID(), Type: models.NotificationTypeOverdueExit, SessionID: "c", Timestamp: now, Read: true, Resolved: false},
		// Paper refill is auto-resolved at creation; read alone drops it.
		{ID: primitive.NewObjectID(), Type: models.NotificationTypePaperRefill, Timestamp: now, Read: true, Resolved: true},
		// Unread paper refill stays.
		{ID: primitive.NewObjectID(), Type: models.NotificationTypePaperRefill, Timestamp: now, Read: false, Resolved: true},
	}

	kept := ClearReadAndResolved(notifications)
	require.Len(t, kept, 3)

	sessionIDs := make([]string, 0, len(kept))
	for _, n := range kept {
		if n.Type == models.NotificationTypeOverdueExit {
			sessionIDs = append(sessionIDs, n.SessionID)
		}
	}
	assert.ElementsMatch(t, []string{"a", "c"}, sessionIDs)
}

func TestRepairDuplicates(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// A collection that somehow holds three unresolved alerts for one
	// session; repair keeps only the newest unresolved.
	notifications := []models.Notification{
		{ID: primitive.NewObjectID(), Type: models.NotificationTypeOverdueExit, SessionID: "a", Timestamp: now.Add(-2 * time.Minute)},
		{ID: primitive.NewObjectID(), Type: models.NotificationTypeOverdueExit, SessionID: "a", Timestamp: now},
		{ID: primitive.NewObjectID(), Type: models.NotificationTypeOverdueExit, SessionID: "a", Timestamp: now.Add(-time.Minute)},
		{ID: primitive.NewObjectID(), Type: models.NotificationTypeOverdueExit, SessionID: "b", Timestamp: now},
	}

	repaired := RepairDuplicates(now, notifications)
	assert.Equal(t, 2, repaired)
	assert.Equal(t, 1, UnresolvedCount("a", notifications))
	assert.Equal(t, 1, UnresolvedCount("b", notifications))

	// The survivor is the newest record.
	for _, n := range notifications {
		if n.SessionID == "a" && !n.Resolved {
			assert.Equal(t, now, n.Timestamp)
		}
	}

	// A healthy collection repairs nothing.
	assert.Equal(t, 0, RepairDuplicates(now, notifications))
}
