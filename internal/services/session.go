package services

import (
	"errors"
	"fmt"
	"time"

	"parkhub-backend/internal/models"
	"parkhub-backend/internal/pricing"
	"parkhub-backend/internal/repository"
	"parkhub-backend/internal/websocket"
	"parkhub-backend/pkg/cache"
	"parkhub-backend/pkg/email"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionService struct {
	sessionRepo      *repository.SessionRepository
	pricingRepo      *repository.PricingRepository
	passRepo         *repository.PassRepository
	bookingRepo      *repository.BookingRepository
	notificationRepo *repository.NotificationRepository
	cacheManager     cache.CacheManager
	cacheConfig      cache.CacheConfig
	wsManager        websocket.EventManager
	emailService     *email.EmailService
	feeOptions       pricing.Options
}

func NewSessionService(sessionRepo *repository.SessionRepository, pricingRepo *repository.PricingRepository) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		pricingRepo: pricingRepo,
		cacheConfig: cache.DefaultCacheConfig(),
		feeOptions:  pricing.DefaultOptions(),
	}
}

// SetPassRepository allows setting the pass repository for fee exemption lookups
func (s *SessionService) SetPassRepository(passRepo *repository.PassRepository) {
	s.passRepo = passRepo
}

// SetBookingRepository allows setting the booking repository for code redemption
func (s *SessionService) SetBookingRepository(bookingRepo *repository.BookingRepository) {
	s.bookingRepo = bookingRepo
}

// SetNotificationRepository allows setting the notification repository for alert resolution
func (s *SessionService) SetNotificationRepository(notificationRepo *repository.NotificationRepository) {
	s.notificationRepo = notificationRepo
}

// SetCacheManager allows setting the cache manager for caching operations
func (s *SessionService) SetCacheManager(cacheManager cache.CacheManager) {
	s.cacheManager = cacheManager
}

// SetCacheConfig allows setting custom cache configuration
func (s *SessionService) SetCacheConfig(config cache.CacheConfig) {
	s.cacheConfig = config
}

// SetWebSocketManager allows setting the WebSocket manager for live feed events
func (s *SessionService) SetWebSocketManager(wsManager websocket.EventManager) {
	s.wsManager = wsManager
}

// SetEmailService allows setting the email service for payment receipts
func (s *SessionService) SetEmailService(emailService *email.EmailService) {
	s.emailService = emailService
}

// SetFeeOptions allows overriding the fee calculator tunables
func (s *SessionService) SetFeeOptions(opts pricing.Options) {
	s.feeOptions = opts
}

type EntryRequest struct {
	VehicleNumber string `json:"vehicleNumber" validate:"required,min=1,max=20"`
	VehicleType   string `json:"vehicleType" validate:"required,oneof=car motorcycle truck staff contracted"`
	DeviceID      string `json:"deviceId,omitempty"`
	BookingCode   string `json:"bookingCode,omitempty"`
}

type PaymentRequest struct {
	Method       string `json:"method" validate:"required,oneof=cash card mobile"`
	ReceiptEmail string `json:"receiptEmail,omitempty" validate:"omitempty,email"`
}

type WaiverRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=200"`
}

type ExitRequest struct {
	DeviceID string `json:"deviceId,omitempty"`
}

// FeeQuote is the amount owed by a session at a given instant.
type FeeQuote struct {
	SessionID     string    `json:"sessionId"`
	VehicleNumber string    `json:"vehicleNumber"`
	EntryTime     time.Time `json:"entryTime"`
	EvaluatedAt   time.Time `json:"evaluatedAt"`
	BillableHours int       `json:"billableHours"`
	Amount        float64   `json:"amount"`
	Exempt        bool      `json:"exempt"`
	ExemptReason  string    `json:"exemptReason,omitempty"`
}

// RecordEntry opens a session for a vehicle at the entry gate. A plate can
// have at most one open session; a valid pass is attached for fee exemption
// and a booking code is redeemed if supplied.
func (s *SessionService) RecordEntry(req *EntryRequest) (*models.Session, error) {
	existing, _ := s.sessionRepo.FindParkedByVehicleNumber(req.VehicleNumber)
	if existing != nil {
		return nil, errors.New("vehicle already has an open session")
	}

	now := time.Now()
	session := &models.Session{
		ID:            primitive.NewObjectID(),
		VehicleNumber: req.VehicleNumber,
		VehicleType:   req.VehicleType,
		EntryDeviceID: req.DeviceID,
		EntryTime:     now,
		Status:        models.SessionStatusParked,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Attach a valid pass if the plate holds one.
	if s.passRepo != nil {
		if pass, err := s.passRepo.FindValidByVehicleNumber(req.VehicleNumber, now); err == nil && pass != nil {
			session.PassID = pass.ID.Hex()
		}
	}

	if req.BookingCode != "" {
		if err := s.redeemBooking(req.BookingCode, req.VehicleNumber); err != nil {
			return nil, err
		}
		session.BookingCode = req.BookingCode
	}

	created, err := s.sessionRepo.Create(session)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		s.invalidateSessionLists()
	}

	s.broadcastSessionEvent(websocket.EventTypeEntry, created, map[string]interface{}{
		"deviceId": req.DeviceID,
	}, websocket.PriorityMedium)

	return created, nil
}

// redeemBooking flips a confirmed booking to claimed. The code must belong to
// the entering plate and still be inside its window.
func (s *SessionService) redeemBooking(code, vehicleNumber string) error {
	if s.bookingRepo == nil {
		return errors.New("booking code not supported")
	}

	booking, err := s.bookingRepo.FindByCode(code)
	if err != nil {
		return errors.New("booking code not found")
	}
	if booking.Status != models.BookingStatusConfirmed {
		return fmt.Errorf("booking code is %s", booking.Status)
	}
	if booking.VehicleNumber != vehicleNumber {
		return errors.New("booking code belongs to a different vehicle")
	}

	return s.bookingRepo.UpdateStatus(booking.ID.Hex(), models.BookingStatusClaimed)
}

// QuoteFee computes what the session owes right now. Exempt categories and
// pass holders quote zero.
func (s *SessionService) QuoteFee(sessionID string) (*FeeQuote, error) {
	session, err := s.GetSessionByID(sessionID)
	if err != nil {
		return nil, err
	}

	return s.quoteAt(session, time.Now())
}

func (s *SessionService) quoteAt(session *models.Session, at time.Time) (*FeeQuote, error) {
	quote := &FeeQuote{
		SessionID:     session.ID.Hex(),
		VehicleNumber: session.VehicleNumber,
		EntryTime:     session.EntryTime,
		EvaluatedAt:   at,
		BillableHours: pricing.BillableHours(session.EntryTime, at),
	}

	if session.FeeExempt() {
		quote.Exempt = true
		quote.ExemptReason = "exempt vehicle category"
		return quote, nil
	}
	if session.PassID != "" {
		quote.Exempt = true
		quote.ExemptReason = "valid pass"
		return quote, nil
	}

	plan, err := s.resolveActivePlan(session.VehicleType)
	if err != nil {
		return nil, err
	}

	amount, err := pricing.ComputeFeeChecked(session.EntryTime, at, plan.Tiers, s.feeOptions)
	if err != nil {
		return nil, err
	}

	quote.Amount = amount
	return quote, nil
}

// ProcessPayment charges the session the quoted amount and records the
// payment. The repository rejects a second payment for the same session.
func (s *SessionService) ProcessPayment(sessionID string, req *PaymentRequest) (*models.Session, error) {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Paid() {
		return nil, errors.New("session already paid")
	}
	if !session.Parked() {
		return nil, errors.New("session already exited")
	}

	now := time.Now()
	quote, err := s.quoteAt(session, now)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if quote.Exempt {
		method = models.PaymentMethodWaiver
	}

	if err := s.sessionRepo.MarkPaid(sessionID, quote.Amount, method, quote.ExemptReason, now); err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		s.invalidateSessionCache(sessionID)
	}

	s.broadcastSessionEvent(websocket.EventTypePayment, updated, map[string]interface{}{
		"amount": quote.Amount,
		"method": method,
	}, websocket.PriorityMedium)

	if s.emailService != nil && req.ReceiptEmail != "" {
		s.sendReceipt(req.ReceiptEmail, updated, now)
	}

	return updated, nil
}

// RecordWaiver zeroes out the session's fee with an operator-supplied reason.
func (s *SessionService) RecordWaiver(sessionID string, req *WaiverRequest) (*models.Session, error) {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Paid() {
		return nil, errors.New("session already paid")
	}
	if !session.Parked() {
		return nil, errors.New("session already exited")
	}

	now := time.Now()
	if err := s.sessionRepo.MarkPaid(sessionID, 0, models.PaymentMethodWaiver, req.Reason, now); err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		s.invalidateSessionCache(sessionID)
	}

	s.broadcastSessionEvent(websocket.EventTypePayment, updated, map[string]interface{}{
		"amount": 0.0,
		"method": models.PaymentMethodWaiver,
		"reason": req.Reason,
	}, websocket.PriorityMedium)

	return updated, nil
}

// RecordExit closes the session at the exit gate. Payment must have been
// processed first unless the session is fee-exempt, in which case a zero
// waiver is recorded on the way out. Any unresolved overdue alerts for the
// session are resolved.
func (s *SessionService) RecordExit(sessionID string, req *ExitRequest) (*models.Session, error) {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Parked() {
		return nil, errors.New("session already exited")
	}

	now := time.Now()
	if !session.Paid() {
		if !session.FeeExempt() && session.PassID == "" {
			return nil, errors.New("payment required before exit")
		}
		reason := "exempt vehicle category"
		if session.PassID != "" {
			reason = "valid pass"
		}
		if err := s.sessionRepo.MarkPaid(sessionID, 0, models.PaymentMethodWaiver, reason, now); err != nil {
			return nil, err
		}
	}

	if err := s.sessionRepo.MarkExited(sessionID, req.DeviceID, now); err != nil {
		return nil, err
	}

	if s.notificationRepo != nil {
		if _, err := s.notificationRepo.ResolveBySession(sessionID, now); err != nil {
			fmt.Printf("Failed to resolve overdue alerts for session %s: %v\n", sessionID, err)
		}
	}

	updated, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		s.invalidateSessionCache(sessionID)
	}

	s.broadcastSessionEvent(websocket.EventTypeExit, updated, map[string]interface{}{
		"deviceId": req.DeviceID,
	}, websocket.PriorityMedium)

	return updated, nil
}

func (s *SessionService) GetAllSessions() ([]*models.Session, error) {
	// Try cache first if cache manager is available
	if s.cacheManager != nil {
		cachedSessions, err := s.cacheManager.GetSessionList("all_sessions")
		if err == nil && cachedSessions != nil {
			return cachedSessions, nil
		}
		if err != nil {
			fmt.Printf("Cache error for GetAllSessions: %v\n", err)
		}
	}

	sessions, err := s.sessionRepo.FindAll()
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("session_list")
		if cacheErr := s.cacheManager.SetSessionList("all_sessions", sessions, ttl); cacheErr != nil {
			fmt.Printf("Failed to cache all sessions: %v\n", cacheErr)
		}
	}

	return sessions, nil
}

func (s *SessionService) GetSessionByID(id string) (*models.Session, error) {
	// Try cache first if cache manager is available
	if s.cacheManager != nil {
		cachedSession, err := s.cacheManager.GetSession(id)
		if err == nil && cachedSession != nil {
			return cachedSession, nil
		}
		if err != nil {
			fmt.Printf("Cache error for GetSessionByID(%s): %v\n", id, err)
		}
	}

	session, err := s.sessionRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("session")
		if cacheErr := s.cacheManager.SetSession(id, session, ttl); cacheErr != nil {
			fmt.Printf("Failed to cache session %s: %v\n", id, cacheErr)
		}
	}

	return session, nil
}

func (s *SessionService) GetParkedSessions() ([]*models.Session, error) {
	if s.cacheManager != nil {
		cachedSessions, err := s.cacheManager.GetSessionList("parked_sessions")
		if err == nil && cachedSessions != nil {
			return cachedSessions, nil
		}
		if err != nil {
			fmt.Printf("Cache error for GetParkedSessions: %v\n", err)
		}
	}

	sessions, err := s.sessionRepo.FindParked()
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("session_list")
		if cacheErr := s.cacheManager.SetSessionList("parked_sessions", sessions, ttl); cacheErr != nil {
			fmt.Printf("Failed to cache parked sessions: %v\n", cacheErr)
		}
	}

	return sessions, nil
}

func (s *SessionService) GetSessionsByDateRange(start, end time.Time) ([]*models.Session, error) {
	return s.sessionRepo.FindByDateRange(start, end)
}

// GetOccupancy returns the live count of vehicles in the lot, cached briefly
// for the dashboard widget.
func (s *SessionService) GetOccupancy() (int64, error) {
	if s.cacheManager != nil {
		var cached int64
		if err := s.cacheManager.Get("occupancy", &cached); err == nil {
			return cached, nil
		}
	}

	count, err := s.sessionRepo.CountParked()
	if err != nil {
		return 0, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("occupancy")
		if cacheErr := s.cacheManager.Set("occupancy", count, ttl); cacheErr != nil {
			fmt.Printf("Failed to cache occupancy: %v\n", cacheErr)
		}
	}

	return count, nil
}

// resolveActivePlan fetches the active pricing plan for a vehicle type,
// cache-first. Plans change rarely so they carry a long TTL.
func (s *SessionService) resolveActivePlan(vehicleType string) (*models.PricingPlan, error) {
	if s.cacheManager != nil {
		cachedPlan, err := s.cacheManager.GetActivePlan(vehicleType)
		if err == nil && cachedPlan != nil {
			return cachedPlan, nil
		}
		if err != nil {
			fmt.Printf("Cache error for active plan (%s): %v\n", vehicleType, err)
		}
	}

	plan, err := s.pricingRepo.FindActive(vehicleType)
	if err != nil {
		return nil, err
	}

	if s.cacheManager != nil {
		ttl := s.cacheConfig.GetTTLForDataType("plan")
		if cacheErr := s.cacheManager.SetActivePlan(vehicleType, plan, ttl); cacheErr != nil {
			fmt.Printf("Failed to cache active plan for %s: %v\n", vehicleType, cacheErr)
		}
	}

	return plan, nil
}

// Cache invalidation helper methods

// invalidateSessionCache invalidates a single session plus the derived lists.
func (s *SessionService) invalidateSessionCache(sessionID string) {
	if err := s.cacheManager.InvalidateSession(sessionID); err != nil {
		fmt.Printf("Failed to invalidate session cache for %s: %v\n", sessionID, err)
	}
	s.invalidateSessionLists()
}

// invalidateSessionLists drops the list and occupancy caches after any write.
func (s *SessionService) invalidateSessionLists() {
	for _, key := range []string{"parkhub:session_list:all_sessions", "parkhub:session_list:parked_sessions", "parkhub:generic:occupancy"} {
		if err := s.cacheManager.Delete(key); err != nil {
			fmt.Printf("Failed to invalidate cache key %s: %v\n", key, err)
		}
	}
}

func (s *SessionService) broadcastSessionEvent(eventType string, session *models.Session, data map[string]interface{}, priority string) {
	if s.wsManager == nil {
		return
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	data["sessionId"] = session.ID.Hex()
	data["status"] = session.Status

	event := websocket.LotEvent{
		VehicleNumber: session.VehicleNumber,
		EventType:     eventType,
		Data:          data,
		Timestamp:     time.Now(),
		Priority:      priority,
	}

	if err := s.wsManager.BroadcastEvent(event); err != nil {
		fmt.Printf("Failed to broadcast %s event for session %s: %v\n", eventType, session.ID.Hex(), err)
	}
}

func (s *SessionService) sendReceipt(to string, session *models.Session, paidAt time.Time) {
	data := email.ReceiptData{
		VehicleNumber: session.VehicleNumber,
		EntryTime:     session.EntryTime.Format("Jan 2, 2006 15:04"),
		ExitTime:      paidAt.Format("Jan 2, 2006 15:04"),
		Duration:      email.FormatDuration(paidAt.Sub(session.EntryTime)),
		Amount:        fmt.Sprintf("%.2f", session.Amount),
		Currency:      "USD",
		PaymentMethod: session.PaymentMethod,
		Waived:        session.PaymentMethod == models.PaymentMethodWaiver,
		WaiveReason:   session.WaiverReason,
	}

	if err := s.emailService.SendReceiptEmail(to, data); err != nil {
		fmt.Printf("Failed to send receipt email for session %s: %v\n", session.ID.Hex(), err)
	}
}
