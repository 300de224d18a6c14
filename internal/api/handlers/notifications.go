package handlers

import (
	"net/http"

	"parkhub-backend/internal/services"
	"parkhub-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	validator           *validator.Validate
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		validator:           validator.New(),
	}
}

// GetNotifications retrieves all notifications, newest first
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	if notificationType := c.Query("type"); notificationType != "" {
		notifications, err := h.notificationService.GetNotificationsByType(notificationType)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve notifications", err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Notifications retrieved successfully", notifications)
		return
	}

	notifications, err := h.notificationService.GetAllNotifications()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve notifications", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notifications retrieved successfully", notifications)
}

// GetUnresolvedNotifications retrieves notifications still awaiting resolution
func (h *NotificationHandler) GetUnresolvedNotifications(c *gin.Context) {
	notifications, err := h.notificationService.GetUnresolvedNotifications()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve unresolved notifications", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Unresolved notifications retrieved successfully", notifications)
}

// CreateNotification records a notification (deduplicated for overdue alerts)
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req services.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	notification, err := h.notificationService.CreateNotification(&req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to create notification", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Notification created successfully", notification)
}

// MarkRead marks a single notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID := c.Param("id")
	if notificationID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Notification ID is required", nil)
		return
	}

	if err := h.notificationService.MarkRead(notificationID); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to mark notification as read", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllRead marks every notification as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	count, err := h.notificationService.MarkAllRead()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to mark notifications as read", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notifications marked as read", gin.H{"updated": count})
}

// ClearNotifications clears resolved, read notifications from the feed
func (h *NotificationHandler) ClearNotifications(c *gin.Context) {
	count, err := h.notificationService.ClearNotifications()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to clear notifications", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notifications cleared successfully", gin.H{"cleared": count})
}

// GetNotificationCounts returns unread and unresolved counts for dashboard badges
func (h *NotificationHandler) GetNotificationCounts(c *gin.Context) {
	unread, err := h.notificationService.UnreadCount()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve notification counts", err)
		return
	}

	unresolved, err := h.notificationService.UnresolvedCount()
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve notification counts", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification counts retrieved successfully", gin.H{
		"unread":     unread,
		"unresolved": unresolved,
	})
}
