package services

import (
	"fmt"
	"time"

	"parkhub-backend/internal/models"
	"parkhub-backend/internal/repository"
	"parkhub-backend/internal/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	wsManager        websocket.EventManager
}

func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
	}
}

// SetWebSocketManager allows setting the WebSocket manager for live feed events
func (s *NotificationService) SetWebSocketManager(wsManager websocket.EventManager) {
	s.wsManager = wsManager
}

type CreateNotificationRequest struct {
	Type          string `json:"type" validate:"required,oneof=overdue_exit paper_refill device_offline"`
	SessionID     string `json:"sessionId,omitempty"`
	VehicleNumber string `json:"vehicleNumber,omitempty"`
	Message       string `json:"message" validate:"required,min=1,max=500"`
}

// CreateNotification appends a record to the feed and pushes it to connected
// dashboards. Fire-and-forget types are stored already resolved; overdue
// alerts are deduplicated against the session's unresolved record.
func (s *NotificationService) CreateNotification(req *CreateNotificationRequest) (*models.Notification, error) {
	if req.Type == models.NotificationTypeOverdueExit && req.SessionID != "" {
		exists, err := s.notificationRepo.HasUnresolved(req.SessionID, models.NotificationTypeOverdueExit)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("unresolved overdue alert already exists for session %s", req.SessionID)
		}
	}

	notification := &models.Notification{
		ID:            primitive.NewObjectID(),
		Type:          req.Type,
		SessionID:     req.SessionID,
		VehicleNumber: req.VehicleNumber,
		Message:       req.Message,
		Timestamp:     time.Now(),
	}

	// Only overdue alerts track a resolution lifecycle.
	if req.Type != models.NotificationTypeOverdueExit {
		notification.Resolved = true
		at := notification.Timestamp
		notification.ResolvedAt = &at
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		return nil, err
	}

	s.BroadcastNotification(*notification)

	return notification, nil
}

func (s *NotificationService) GetAllNotifications() ([]models.Notification, error) {
	return s.notificationRepo.FindAll()
}

func (s *NotificationService) GetNotificationsByType(notificationType string) ([]models.Notification, error) {
	return s.notificationRepo.FindByType(notificationType)
}

func (s *NotificationService) GetUnresolvedNotifications() ([]models.Notification, error) {
	return s.notificationRepo.FindUnresolved()
}

func (s *NotificationService) MarkRead(id string) error {
	return s.notificationRepo.MarkRead(id)
}

func (s *NotificationService) MarkAllRead() (int64, error) {
	return s.notificationRepo.MarkAllRead()
}

// ResolveBySession closes every unresolved overdue alert for the session.
func (s *NotificationService) ResolveBySession(sessionID string) (int64, error) {
	return s.notificationRepo.ResolveBySession(sessionID, time.Now())
}

// ClearNotifications drops what the clear gate allows: read-and-resolved
// overdue alerts, and read records of other types.
func (s *NotificationService) ClearNotifications() (int64, error) {
	return s.notificationRepo.ClearReadAndResolved()
}

// UnreadCount feeds the dashboard badge.
func (s *NotificationService) UnreadCount() (int64, error) {
	return s.notificationRepo.CountUnread()
}

func (s *NotificationService) UnresolvedCount() (int64, error) {
	return s.notificationRepo.CountUnresolved()
}

// BroadcastNotification pushes a notification over the live feed. Also used by
// the overdue monitor as its Broadcaster.
func (s *NotificationService) BroadcastNotification(notification models.Notification) {
	if s.wsManager == nil {
		return
	}

	priority := websocket.PriorityMedium
	if notification.Type == models.NotificationTypeOverdueExit {
		priority = websocket.PriorityHigh
	}

	event := websocket.LotEvent{
		VehicleNumber: notification.VehicleNumber,
		EventType:     websocket.EventTypeNotification,
		Data: map[string]interface{}{
			"notificationId":   notification.ID.Hex(),
			"notificationType": notification.Type,
			"message":          notification.Message,
			"sessionId":        notification.SessionID,
		},
		Timestamp: notification.Timestamp,
		Priority:  priority,
	}

	if err := s.wsManager.BroadcastEvent(event); err != nil {
		fmt.Printf("Failed to broadcast notification %s: %v\n", notification.ID.Hex(), err)
	}
}
