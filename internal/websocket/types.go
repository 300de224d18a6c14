package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// EventFilters defines filtering criteria for lot events
type EventFilters struct {
	VehicleNumbers    []string `json:"vehicleNumbers,omitempty"`
	EventTypes        []string `json:"eventTypes,omitempty"`
	NotificationTypes []string `json:"notificationTypes,omitempty"`
}

// LotEvent represents a live dashboard event message
type LotEvent struct {
	VehicleNumber string                 `json:"vehicleNumber,omitempty"`
	EventType     string                 `json:"eventType"` // "entry", "exit", "payment", "notification", "occupancy"
	Data          map[string]interface{} `json:"data"`
	Timestamp     time.Time              `json:"timestamp"`
	Priority      string                 `json:"priority"` // "low", "medium", "high", "critical"
}

// Client represents a WebSocket client connection
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Filters  EventFilters
	Send     chan LotEvent
	LastPing time.Time
	IsActive bool
}

// EventManager interface defines the contract for WebSocket management
type EventManager interface {
	RegisterClient(clientID string, conn *websocket.Conn, filters EventFilters) error
	UnregisterClient(clientID string) error
	BroadcastEvent(event LotEvent) error
	BroadcastBatchEvents(events []LotEvent) error
	GetConnectedClients() int
	Start() error
	Stop() error
	GetClientStats() ClientStats
}

// ClientStats provides statistics about connected clients
type ClientStats struct {
	TotalClients    int `json:"totalClients"`
	ActiveClients   int `json:"activeClients"`
	InactiveClients int `json:"inactiveClients"`
}

// Event types carried over the live feed
const (
	EventTypeEntry        = "entry"
	EventTypeExit         = "exit"
	EventTypePayment      = "payment"
	EventTypeNotification = "notification"
	EventTypeOccupancy    = "occupancy"
	EventTypeDeviceStatus = "device_status"
)

// Message types for WebSocket communication
const (
	MessageTypeLotEvent   = "lot_event"
	MessageTypeBatchEvent = "batch_event"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
	MessageTypeError      = "error"
)

// Priority levels for message handling
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)
