package services

import (
	"errors"
	"time"

	"parkhub-backend/internal/repository"
)

type ReportService struct {
	sessionRepo      *repository.SessionRepository
	notificationRepo *repository.NotificationRepository
}

func NewReportService(sessionRepo *repository.SessionRepository) *ReportService {
	return &ReportService{
		sessionRepo: sessionRepo,
	}
}

// SetNotificationRepository allows setting the notification repository for dashboard counters
func (s *ReportService) SetNotificationRepository(notificationRepo *repository.NotificationRepository) {
	s.notificationRepo = notificationRepo
}

// RevenueReport aggregates paid sessions over a date range.
func (s *ReportService) RevenueReport(start, end time.Time) (map[string]interface{}, error) {
	if !end.After(start) {
		return nil, errors.New("end date must be after start date")
	}

	stats, err := s.sessionRepo.RevenueStatistics(start, end)
	if err != nil {
		return nil, err
	}

	// No paid sessions in range decodes to nil; return explicit zeroes so the
	// dashboard renders a proper empty report.
	if stats == nil {
		stats = map[string]interface{}{
			"total_revenue":   0.0,
			"paid_sessions":   0,
			"waived_sessions": 0,
			"cash_revenue":    0.0,
			"card_revenue":    0.0,
		}
	}

	stats["start_date"] = start
	stats["end_date"] = end
	return stats, nil
}

// DashboardSummary returns the headline numbers for the dashboard: current
// occupancy plus notification badge counts.
func (s *ReportService) DashboardSummary() (map[string]interface{}, error) {
	parked, err := s.sessionRepo.CountParked()
	if err != nil {
		return nil, err
	}

	summary := map[string]interface{}{
		"parked_vehicles": parked,
	}

	if s.notificationRepo != nil {
		unread, err := s.notificationRepo.CountUnread()
		if err != nil {
			return nil, err
		}
		unresolved, err := s.notificationRepo.CountUnresolved()
		if err != nil {
			return nil, err
		}
		summary["unread_notifications"] = unread
		summary["unresolved_notifications"] = unresolved
	}

	return summary, nil
}
