package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"parkhub-backend/internal/models"
	"parkhub-backend/pkg/redis"

	redisClient "github.com/redis/go-redis/v9"
)

// RedisCacheManager implements CacheManager using Redis
type RedisCacheManager struct {
	client *redis.Client
	config CacheConfig
	stats  *cacheStats
	ctx    context.Context
}

// cacheStats tracks cache performance metrics
type cacheStats struct {
	mu            sync.RWMutex
	totalHits     int64
	totalMisses   int64
	evictionCount int64
}

// NewRedisCacheManager creates a new Redis-backed cache manager
func NewRedisCacheManager(redisClient *redis.Client, config CacheConfig) *RedisCacheManager {
	return &RedisCacheManager{
		client: redisClient,
		config: config,
		stats:  &cacheStats{},
		ctx:    context.Background(),
	}
}

// GetSession retrieves a session from cache
func (r *RedisCacheManager) GetSession(sessionID string) (*models.Session, error) {
	key := r.buildKey("session", sessionID)

	data, err := r.client.GetClient().Get(r.ctx, key).Result()
	if err != nil {
		if err == redisClient.Nil {
			r.recordMiss()
			return nil, nil // Cache miss, not an error
		}
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	r.recordHit()
	return &session, nil
}

// SetSession stores a session in cache with TTL
func (r *RedisCacheManager) SetSession(sessionID string, session *models.Session, ttl time.Duration) error {
	key := r.buildKey("session", sessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := r.client.GetClient().Set(r.ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in cache: %w", err)
	}

	// Tag the key for intelligent invalidation
	tags := []string{
		fmt.Sprintf("session:%s", sessionID),
		fmt.Sprintf("vehicle:%s", session.VehicleNumber),
		fmt.Sprintf("status:%s", session.Status),
	}

	if err := r.TagKey(key, tags...); err != nil {
		// Log error but don't fail the cache operation
		fmt.Printf("Warning: failed to tag cache key %s: %v\n", key, err)
	}

	return nil
}

// InvalidateSession removes a specific session from cache
func (r *RedisCacheManager) InvalidateSession(sessionID string) error {
	key := r.buildKey("session", sessionID)
	return r.Delete(key)
}

// GetSessionList retrieves a list of sessions from cache
func (r *RedisCacheManager) GetSessionList(key string) ([]*models.Session, error) {
	cacheKey := r.buildKey("session_list", key)

	data, err := r.client.GetClient().Get(r.ctx, cacheKey).Result()
	if err != nil {
		if err == redisClient.Nil {
			r.recordMiss()
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get session list from cache: %w", err)
	}

	var sessions []*models.Session
	if err := json.Unmarshal([]byte(data), &sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session list data: %w", err)
	}

	r.recordHit()
	return sessions, nil
}

// SetSessionList stores a list of sessions in cache
func (r *RedisCacheManager) SetSessionList(key string, sessions []*models.Session, ttl time.Duration) error {
	cacheKey := r.buildKey("session_list", key)

	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal session list data: %w", err)
	}

	if err := r.client.GetClient().Set(r.ctx, cacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session list in cache: %w", err)
	}

	// Tag the list with relevant tags
	var tags []string
	for _, session := range sessions {
		tags = append(tags, fmt.Sprintf("session:%s", session.ID.Hex()))
	}

	if err := r.TagKey(cacheKey, tags...); err != nil {
		fmt.Printf("Warning: failed to tag cache key %s: %v\n", cacheKey, err)
	}

	return nil
}

// GetActivePlan retrieves the active pricing plan for a vehicle type from cache
func (r *RedisCacheManager) GetActivePlan(vehicleType string) (*models.PricingPlan, error) {
	key := r.buildKey("plan", vehicleType)

	data, err := r.client.GetClient().Get(r.ctx, key).Result()
	if err != nil {
		if err == redisClient.Nil {
			r.recordMiss()
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get pricing plan from cache: %w", err)
	}

	var plan models.PricingPlan
	if err := json.Unmarshal([]byte(data), &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pricing plan data: %w", err)
	}

	r.recordHit()
	return &plan, nil
}

// SetActivePlan stores the active pricing plan for a vehicle type in cache
func (r *RedisCacheManager) SetActivePlan(vehicleType string, plan *models.PricingPlan, ttl time.Duration) error {
	key := r.buildKey("plan", vehicleType)

	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing plan data: %w", err)
	}

	if err := r.client.GetClient().Set(r.ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set pricing plan in cache: %w", err)
	}

	if err := r.TagKey(key, fmt.Sprintf("plan:%s", vehicleType)); err != nil {
		fmt.Printf("Warning: failed to tag cache key %s: %v\n", key, err)
	}

	return nil
}

// InvalidateActivePlan removes the cached active plan for a vehicle type
func (r *RedisCacheManager) InvalidateActivePlan(vehicleType string) error {
	key := r.buildKey("plan", vehicleType)
	return r.Delete(key)
}

// Get retrieves a generic value from cache
func (r *RedisCacheManager) Get(key string, dest interface{}) error {
	cacheKey := r.buildKey("generic", key)

	data, err := r.client.GetClient().Get(r.ctx, cacheKey).Result()
	if err != nil {
		if err == redisClient.Nil {
			r.recordMiss()
			return nil // Cache miss
		}
		return fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	r.recordHit()
	return nil
}

// Set stores a generic value in cache
func (r *RedisCacheManager) Set(key string, value interface{}, ttl time.Duration) error {
	cacheKey := r.buildKey("generic", key)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	return r.client.GetClient().Set(r.ctx, cacheKey, data, ttl).Err()
}

// Delete removes a key from cache
func (r *RedisCacheManager) Delete(key string) error {
	// Remove tags associated with this key first
	if err := r.removeKeyTags(key); err != nil {
		fmt.Printf("Warning: failed to remove tags for key %s: %v\n", key, err)
	}

	return r.client.GetClient().Del(r.ctx, key).Err()
}

// TagKey associates tags with a cache key for intelligent invalidation
func (r *RedisCacheManager) TagKey(key string, tags ...string) error {
	pipe := r.client.GetClient().Pipeline()

	// Store key-to-tags mapping
	keyTagsKey := r.buildTagKey("key_tags", key)
	pipe.SAdd(r.ctx, keyTagsKey, tags)
	pipe.Expire(r.ctx, keyTagsKey, r.config.SessionDataTTL*2) // Tags live longer than data

	// Store tag-to-keys mapping
	for _, tag := range tags {
		tagKeysKey := r.buildTagKey("tag_keys", tag)
		pipe.SAdd(r.ctx, tagKeysKey, key)
		pipe.Expire(r.ctx, tagKeysKey, r.config.SessionDataTTL*2)
	}

	_, err := pipe.Exec(r.ctx)
	return err
}

// InvalidateByTag removes all keys associated with a tag
func (r *RedisCacheManager) InvalidateByTag(tag string) error {
	tagKeysKey := r.buildTagKey("tag_keys", tag)

	// Get all keys associated with this tag
	keys, err := r.client.GetClient().SMembers(r.ctx, tagKeysKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get keys for tag %s: %w", tag, err)
	}

	if len(keys) == 0 {
		return nil // No keys to invalidate
	}

	pipe := r.client.GetClient().Pipeline()

	// Delete all keys
	for _, key := range keys {
		pipe.Del(r.ctx, key)
		// Also remove the key's tag associations
		keyTagsKey := r.buildTagKey("key_tags", key)
		pipe.Del(r.ctx, keyTagsKey)
	}

	// Remove the tag-to-keys mapping
	pipe.Del(r.ctx, tagKeysKey)

	_, err = pipe.Exec(r.ctx)
	if err != nil {
		return fmt.Errorf("failed to invalidate keys for tag %s: %w", tag, err)
	}

	r.stats.mu.Lock()
	r.stats.evictionCount += int64(len(keys))
	r.stats.mu.Unlock()

	return nil
}

// GetCacheStats returns cache performance statistics
func (r *RedisCacheManager) GetCacheStats() CacheStats {
	r.stats.mu.RLock()
	totalHits := r.stats.totalHits
	totalMisses := r.stats.totalMisses
	evictionCount := r.stats.evictionCount
	r.stats.mu.RUnlock()

	total := totalHits + totalMisses
	var hitRate, missRate float64
	if total > 0 {
		hitRate = float64(totalHits) / float64(total)
		missRate = float64(totalMisses) / float64(total)
	}

	// Get memory usage and key count from Redis
	info, err := r.client.GetClient().Info(r.ctx, "memory").Result()
	var memoryUsage int64
	if err == nil {
		if lines := strings.Split(info, "\n"); len(lines) > 0 {
			for _, line := range lines {
				if strings.HasPrefix(line, "used_memory:") {
					if val, err := strconv.ParseInt(strings.TrimPrefix(line, "used_memory:"), 10, 64); err == nil {
						memoryUsage = val
					}
				}
			}
		}
	}

	// Get approximate key count
	keyCount := 0
	if keys, err := r.client.GetClient().Keys(r.ctx, r.config.KeyPrefix+"*").Result(); err == nil {
		keyCount = len(keys)
	}

	return CacheStats{
		HitRate:       hitRate,
		MissRate:      missRate,
		MemoryUsage:   memoryUsage,
		KeyCount:      keyCount,
		EvictionCount: int(evictionCount),
		TotalHits:     totalHits,
		TotalMisses:   totalMisses,
	}
}

// HealthCheck verifies cache connectivity
func (r *RedisCacheManager) HealthCheck() error {
	return r.client.GetClient().Ping(r.ctx).Err()
}

// Close closes the cache manager
func (r *RedisCacheManager) Close() error {
	return r.client.Close()
}

// Helper methods

func (r *RedisCacheManager) buildKey(keyType, identifier string) string {
	return fmt.Sprintf("%s%s:%s", r.config.KeyPrefix, keyType, identifier)
}

func (r *RedisCacheManager) buildTagKey(keyType, identifier string) string {
	return fmt.Sprintf("%s%s:%s", r.config.TagPrefix, keyType, identifier)
}

func (r *RedisCacheManager) recordHit() {
	r.stats.mu.Lock()
	r.stats.totalHits++
	r.stats.mu.Unlock()
}

func (r *RedisCacheManager) recordMiss() {
	r.stats.mu.Lock()
	r.stats.totalMisses++
	r.stats.mu.Unlock()
}

func (r *RedisCacheManager) removeKeyTags(key string) error {
	keyTagsKey := r.buildTagKey("key_tags", key)

	// Get all tags for this key
	tags, err := r.client.GetClient().SMembers(r.ctx, keyTagsKey).Result()
	if err != nil {
		return err
	}

	pipe := r.client.GetClient().Pipeline()

	// Remove key from each tag's key set
	for _, tag := range tags {
		tagKeysKey := r.buildTagKey("tag_keys", tag)
		pipe.SRem(r.ctx, tagKeysKey, key)
	}

	// Remove the key's tag set
	pipe.Del(r.ctx, keyTagsKey)

	_, err = pipe.Exec(r.ctx)
	return err
}
