package ratelimit

import (
	"time"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Default rate limits for different endpoint types
	DefaultLimits map[string]RateLimit `json:"defaultLimits"`

	// Redis key prefix for rate limiting data
	RedisKeyPrefix string `json:"redisKeyPrefix"`

	// Cleanup interval for expired rate limit data
	CleanupInterval time.Duration `json:"cleanupInterval"`

	// Enable/disable rate limiting
	Enabled bool `json:"enabled"`
}

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLimits: map[string]RateLimit{
			// Authentication endpoints - more restrictive
			"auth":        {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},
			"auth_login":  {RequestsPerMinute: 5, BurstSize: 2, WindowSize: time.Minute},
			"auth_logout": {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},

			// Session endpoints - gate traffic, moderate limits
			"sessions":       {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},
			"sessions_entry": {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
			"sessions_exit":  {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
			"sessions_pay":   {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},

			// Notification endpoints - higher limits for dashboard polling
			"notifications":       {RequestsPerMinute: 200, BurstSize: 50, WindowSize: time.Minute},
			"notifications_clear": {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},

			// Device heartbeats - very permissive, one per device per interval
			"devices":           {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},
			"devices_heartbeat": {RequestsPerMinute: 600, BurstSize: 100, WindowSize: time.Minute},

			// Pricing plan management - rare admin operations
			"plans":        {RequestsPerMinute: 50, BurstSize: 10, WindowSize: time.Minute},
			"plans_create": {RequestsPerMinute: 10, BurstSize: 3, WindowSize: time.Minute},

			// Booking and pass endpoints
			"bookings":        {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},
			"bookings_create": {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},
			"passes":          {RequestsPerMinute: 50, BurstSize: 10, WindowSize: time.Minute},

			// User management - moderate limits
			"users":        {RequestsPerMinute: 50, BurstSize: 10, WindowSize: time.Minute},
			"users_create": {RequestsPerMinute: 10, BurstSize: 3, WindowSize: time.Minute},
			"users_update": {RequestsPerMinute: 20, BurstSize: 5, WindowSize: time.Minute},
			"users_delete": {RequestsPerMinute: 5, BurstSize: 2, WindowSize: time.Minute},

			// Health check - very permissive
			"health": {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},

			// Default fallback
			"default": {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
		},
		RedisKeyPrefix:  "ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

// GetEndpointKey generates a rate limit key for a specific endpoint
func (c *Config) GetEndpointKey(endpoint, method string) string {
	// Map specific endpoints to rate limit categories
	endpointMap := map[string]string{
		"POST:/api/v1/auth/login":    "auth_login",
		"POST:/api/v1/auth/logout":   "auth_logout",
		"POST:/api/v1/auth/register": "auth",
		"GET:/api/v1/auth/profile":   "auth",

		"GET:/api/v1/sessions":        "sessions",
		"POST:/api/v1/sessions/entry": "sessions_entry",
		"POST:/api/v1/sessions/*":     "sessions_exit",

		"GET:/api/v1/notifications":    "notifications",
		"PATCH:/api/v1/notifications/*": "notifications_clear",

		"GET:/api/v1/devices":      "devices",
		"POST:/api/v1/devices/*":   "devices_heartbeat",

		"GET:/api/v1/plans":  "plans",
		"POST:/api/v1/plans": "plans_create",

		"GET:/api/v1/bookings":  "bookings",
		"POST:/api/v1/bookings": "bookings_create",

		"GET:/api/v1/passes":  "passes",
		"POST:/api/v1/passes": "passes",

		"GET:/api/v1/users":      "users",
		"POST:/api/v1/users":     "users_create",
		"PATCH:/api/v1/users/*":  "users_update",
		"DELETE:/api/v1/users/*": "users_delete",

		"GET:/api/v1/health": "health",
	}

	key := method + ":" + endpoint
	if category, exists := endpointMap[key]; exists {
		return category
	}

	// Check for wildcard matches
	for pattern, category := range endpointMap {
		if matchesPattern(key, pattern) {
			return category
		}
	}

	return "default"
}

// matchesPattern checks if a key matches a pattern with wildcards
func matchesPattern(key, pattern string) bool {
	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(key) >= len(prefix) && key[:len(prefix)] == prefix
	}
	return key == pattern
}
