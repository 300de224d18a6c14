package cache

import (
	"time"

	"parkhub-backend/internal/models"
)

// CacheManager defines the interface for caching operations
type CacheManager interface {
	// Session operations
	GetSession(sessionID string) (*models.Session, error)
	SetSession(sessionID string, session *models.Session, ttl time.Duration) error
	InvalidateSession(sessionID string) error

	// Session list operations
	GetSessionList(key string) ([]*models.Session, error)
	SetSessionList(key string, sessions []*models.Session, ttl time.Duration) error

	// Active pricing plan operations
	GetActivePlan(vehicleType string) (*models.PricingPlan, error)
	SetActivePlan(vehicleType string, plan *models.PricingPlan, ttl time.Duration) error
	InvalidateActivePlan(vehicleType string) error

	// Generic operations
	Get(key string, dest interface{}) error
	Set(key string, value interface{}, ttl time.Duration) error
	Delete(key string) error

	// Tag operations for intelligent invalidation
	TagKey(key string, tags ...string) error
	InvalidateByTag(tag string) error

	// Statistics and health
	GetCacheStats() CacheStats
	HealthCheck() error
	Close() error
}

// CacheStats provides cache performance metrics
type CacheStats struct {
	HitRate       float64 `json:"hitRate"`
	MissRate      float64 `json:"missRate"`
	MemoryUsage   int64   `json:"memoryUsage"`
	KeyCount      int     `json:"keyCount"`
	EvictionCount int     `json:"evictionCount"`
	TotalHits     int64   `json:"totalHits"`
	TotalMisses   int64   `json:"totalMisses"`
}
