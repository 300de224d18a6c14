package cleanup

import (
	"log"
	"time"

	"parkhub-backend/internal/repository"
)

// CleanupService periodically purges stale records: cleared notifications
// past their retention window, confirmed bookings whose window has lapsed,
// and expired password reset tokens.
type CleanupService struct {
	userRepo         *repository.UserRepository
	notificationRepo *repository.NotificationRepository
	bookingRepo      *repository.BookingRepository
	interval         time.Duration
	retentionDays    int
	stopChan         chan bool
}

func NewCleanupService(
	userRepo *repository.UserRepository,
	notificationRepo *repository.NotificationRepository,
	bookingRepo *repository.BookingRepository,
	interval time.Duration,
	retentionDays int,
) *CleanupService {
	return &CleanupService{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		bookingRepo:      bookingRepo,
		interval:         interval,
		retentionDays:    retentionDays,
		stopChan:         make(chan bool),
	}
}

// Start begins the cleanup service
func (s *CleanupService) Start() {
	log.Printf("Starting retention cleanup service (interval: %v)", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run cleanup immediately on start
	s.runCleanup()

	for {
		select {
		case <-ticker.C:
			s.runCleanup()
		case <-s.stopChan:
			log.Println("Stopping retention cleanup service")
			return
		}
	}
}

// Stop stops the cleanup service
func (s *CleanupService) Stop() {
	s.stopChan <- true
}

func (s *CleanupService) runCleanup() {
	s.cleanupNotifications()
	s.expireBookings()
	s.cleanupExpiredTokens()
}

// cleanupNotifications purges clearable notifications older than the
// retention window. Unread or unresolved overdue alerts are never purged.
func (s *CleanupService) cleanupNotifications() {
	if s.notificationRepo == nil || s.retentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	count, err := s.notificationRepo.DeleteClearedBefore(cutoff)
	if err != nil {
		log.Printf("Error purging old notifications: %v", err)
		return
	}

	if count > 0 {
		log.Printf("Purged %d notifications older than %d days", count, s.retentionDays)
	}
}

// expireBookings marks confirmed bookings whose window has passed as expired.
func (s *CleanupService) expireBookings() {
	if s.bookingRepo == nil {
		return
	}

	count, err := s.bookingRepo.ExpireBefore(time.Now())
	if err != nil {
		log.Printf("Error expiring lapsed bookings: %v", err)
		return
	}

	if count > 0 {
		log.Printf("Expired %d lapsed bookings", count)
	}
}

// cleanupExpiredTokens removes expired password reset tokens from the database
func (s *CleanupService) cleanupExpiredTokens() {
	if s.userRepo == nil {
		return
	}

	count, err := s.userRepo.CleanupExpiredResetTokens()
	if err != nil {
		log.Printf("Error cleaning up expired reset tokens: %v", err)
		return
	}

	if count > 0 {
		log.Printf("Cleaned up %d expired password reset tokens", count)
	}
}
