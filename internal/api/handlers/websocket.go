package handlers

import (
	"log"
	"net/http"
	"strings"

	"parkhub-backend/internal/websocket"
	"parkhub-backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebSocketHandler handles WebSocket connections for the live dashboard feed
type WebSocketHandler struct {
	manager websocket.EventManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(manager websocket.EventManager) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket for live lot events
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	// Validate JWT token from query parameter or Authorization header
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		log.Printf("WebSocket connection rejected: no token provided")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication token required"})
		return
	}

	// Validate the JWT token
	jwtUtil := jwt.NewJWTUtil()
	_, err := jwtUtil.ValidateToken(token)
	if err != nil {
		log.Printf("WebSocket connection rejected: invalid token - %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	// Generate unique client ID
	clientID := uuid.New().String()

	// Parse query parameters for filters
	filters := websocket.EventFilters{}

	if vehicleNumbers := c.QueryArray("vehicleNumbers"); len(vehicleNumbers) > 0 {
		filters.VehicleNumbers = vehicleNumbers
	}

	if eventTypes := c.QueryArray("eventTypes"); len(eventTypes) > 0 {
		filters.EventTypes = eventTypes
	}

	if notificationTypes := c.QueryArray("notificationTypes"); len(notificationTypes) > 0 {
		filters.NotificationTypes = notificationTypes
	}

	// Get the WebSocket manager from the handler
	manager := h.manager.(*websocket.Manager)

	// Upgrade the HTTP connection to WebSocket
	conn, err := manager.GetUpgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection to WebSocket: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to upgrade to WebSocket"})
		return
	}

	// Register the client with the WebSocket manager
	err = h.manager.RegisterClient(clientID, conn, filters)
	if err != nil {
		log.Printf("Failed to register WebSocket client: %v", err)
		conn.Close()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register client"})
		return
	}

	log.Printf("WebSocket client %s connected with filters: %+v", clientID, filters)
}

// GetConnectedClients returns the number of connected WebSocket clients
func (h *WebSocketHandler) GetConnectedClients(c *gin.Context) {
	count := h.manager.GetConnectedClients()
	stats := h.manager.GetClientStats()

	c.JSON(http.StatusOK, gin.H{
		"connectedClients": count,
		"stats":            stats,
	})
}

// BroadcastEvent allows manual broadcasting of lot events (for testing/admin purposes)
func (h *WebSocketHandler) BroadcastEvent(c *gin.Context) {
	var event websocket.LotEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event format"})
		return
	}

	err := h.manager.BroadcastEvent(event)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to broadcast event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event broadcasted successfully"})
}

// DisconnectClient allows manual disconnection of a client (for admin purposes)
func (h *WebSocketHandler) DisconnectClient(c *gin.Context) {
	clientID := c.Param("clientId")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Client ID is required"})
		return
	}

	err := h.manager.UnregisterClient(clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect client"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client disconnected successfully"})
}
