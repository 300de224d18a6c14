package overdue

import (
	"log"
	"time"

	"parkhub-backend/internal/models"
)

// SessionSource supplies the sessions the sweep inspects.
type SessionSource interface {
	FindParked() ([]*models.Session, error)
	FindByID(id string) (*models.Session, error)
}

// NotificationStore persists the sweep's decisions. FindByType returns the
// full overdue log newest first; the mutating methods mirror the pure engine
// rules durably.
type NotificationStore interface {
	FindByType(notificationType string) ([]models.Notification, error)
	Create(notification *models.Notification) error
	ResolveBySession(sessionID string, at time.Time) (int64, error)
}

// Broadcaster pushes new alerts to connected dashboard clients. Optional.
type Broadcaster interface {
	BroadcastNotification(notification models.Notification)
}

// MonitorConfig carries the sweep tunables.
type MonitorConfig struct {
	Interval  time.Duration
	Threshold time.Duration
}

// DefaultMonitorConfig returns a 60-second sweep with the default grace
// period.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:  time.Minute,
		Threshold: DefaultThreshold,
	}
}

// Monitor runs the periodic overdue sweep: every tick it scans parked
// sessions, raises alerts for vehicles past the grace period, and resolves
// alerts whose vehicles have since exited.
type Monitor struct {
	sessions      SessionSource
	notifications NotificationStore
	broadcaster   Broadcaster
	config        MonitorConfig
	stopChan      chan struct{}
}

// NewMonitor creates a sweep over the given stores. broadcaster may be nil.
func NewMonitor(sessions SessionSource, notifications NotificationStore, broadcaster Broadcaster, config MonitorConfig) *Monitor {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.Threshold <= 0 {
		config.Threshold = DefaultThreshold
	}
	return &Monitor{
		sessions:      sessions,
		notifications: notifications,
		broadcaster:   broadcaster,
		config:        config,
		stopChan:      make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called. Blocks; run in a
// goroutine. The ticker is always released on return.
func (m *Monitor) Start() {
	log.Printf("Starting overdue exit monitor (interval: %v, threshold: %v)", m.config.Interval, m.config.Threshold)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on start.
	m.Sweep(time.Now())

	for {
		select {
		case <-ticker.C:
			m.Sweep(time.Now())
		case <-m.stopChan:
			log.Println("Stopping overdue exit monitor")
			return
		}
	}
}

// Stop terminates the sweep loop.
func (m *Monitor) Stop() {
	close(m.stopChan)
}

// Sweep executes one pass over the lot. Exported so hosts and tests can
// trigger it at a chosen instant.
func (m *Monitor) Sweep(now time.Time) {
	parked, err := m.sessions.FindParked()
	if err != nil {
		log.Printf("Overdue sweep: failed to list parked sessions: %v", err)
		return
	}

	alerts, err := m.notifications.FindByType(models.NotificationTypeOverdueExit)
	if err != nil {
		log.Printf("Overdue sweep: failed to load overdue alerts: %v", err)
		return
	}

	parkedByID := make(map[string]*models.Session, len(parked))
	for _, s := range parked {
		parkedByID[s.ID.Hex()] = s
	}

	m.resolveExited(alerts, parkedByID, now)

	for _, session := range parked {
		if !Overdue(session, now, m.config.Threshold) {
			continue
		}
		updated, inserted := UpsertOverdueAlert(session, now, alerts)
		if !inserted {
			continue
		}
		alerts = updated
		record := alerts[0]
		if err := m.notifications.Create(&record); err != nil {
			log.Printf("Overdue sweep: failed to store alert for session %s: %v", record.SessionID, err)
			continue
		}
		log.Printf("Overdue sweep: raised alert for vehicle %s (session %s)", record.VehicleNumber, record.SessionID)
		if m.broadcaster != nil {
			m.broadcaster.BroadcastNotification(record)
		}
	}
}

// resolveExited closes alerts whose sessions are no longer parked.
func (m *Monitor) resolveExited(alerts []models.Notification, parkedByID map[string]*models.Session, now time.Time) {
	handled := make(map[string]bool)
	for i := range alerts {
		n := &alerts[i]
		if n.Resolved || n.Type != models.NotificationTypeOverdueExit || handled[n.SessionID] {
			continue
		}
		if _, stillParked := parkedByID[n.SessionID]; stillParked {
			continue
		}
		handled[n.SessionID] = true

		ResolveOverdueAlerts(n.SessionID, now, alerts)
		if _, err := m.notifications.ResolveBySession(n.SessionID, now); err != nil {
			log.Printf("Overdue sweep: failed to resolve alerts for session %s: %v", n.SessionID, err)
			continue
		}
		log.Printf("Overdue sweep: resolved alert for session %s", n.SessionID)
	}
}
