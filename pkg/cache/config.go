package cache

import "time"

// CacheConfig holds configuration for cache TTL values and behavior
type CacheConfig struct {
	SessionDataTTL time.Duration `json:"sessionDataTTL"` // 30 seconds for live session data
	SessionListTTL time.Duration `json:"sessionListTTL"` // 1 minute for list data
	PlanDataTTL    time.Duration `json:"planDataTTL"`    // 10 minutes, plans change rarely
	OccupancyTTL   time.Duration `json:"occupancyTTL"`   // 10 seconds for the occupancy widget
	MaxMemoryUsage int64         `json:"maxMemoryUsage"` // 100MB limit
	EvictionPolicy string        `json:"evictionPolicy"` // "lru"
	KeyPrefix      string        `json:"keyPrefix"`      // prefix for all cache keys
	TagPrefix      string        `json:"tagPrefix"`      // prefix for tag keys
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		SessionDataTTL: 30 * time.Second,
		SessionListTTL: time.Minute,
		PlanDataTTL:    10 * time.Minute,
		OccupancyTTL:   10 * time.Second,
		MaxMemoryUsage: 100 * 1024 * 1024, // 100MB
		EvictionPolicy: "lru",
		KeyPrefix:      "parkhub:",
		TagPrefix:      "tag:",
	}
}

// GetTTLForDataType returns appropriate TTL based on data type
func (c CacheConfig) GetTTLForDataType(dataType string) time.Duration {
	switch dataType {
	case "session":
		return c.SessionDataTTL
	case "session_list":
		return c.SessionListTTL
	case "plan":
		return c.PlanDataTTL
	case "occupancy":
		return c.OccupancyTTL
	default:
		return c.SessionDataTTL
	}
}
