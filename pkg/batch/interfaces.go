package batch

import (
	"fmt"
	"time"
)

// BatchProcessor defines the interface for batch processing device heartbeats
type BatchProcessor interface {
	AddUpdate(deviceID string, update DeviceUpdateData) error
	ProcessBatch() error
	SetBatchSize(size int)
	SetBatchInterval(interval time.Duration)
	GetBatchStats() BatchStats
	Start() error
	Stop() error
}

// DeviceUpdateData represents the data carried by a device heartbeat
type DeviceUpdateData struct {
	Status     *string   `json:"status,omitempty"`
	PaperLevel *int      `json:"paperLevel,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// BatchStats provides statistics about batch processing
type BatchStats struct {
	BatchesProcessed int           `json:"batchesProcessed"`
	AverageSize      float64       `json:"averageSize"`
	ProcessingTime   time.Duration `json:"processingTime"`
	ErrorRate        float64       `json:"errorRate"`
	TotalUpdates     int64         `json:"totalUpdates"`
	FailedUpdates    int64         `json:"failedUpdates"`
	LastProcessedAt  time.Time     `json:"lastProcessedAt"`
}

// BatchConfig holds configuration for batch processing
type BatchConfig struct {
	MaxBatchSize  int           `json:"maxBatchSize"`  // 50 devices per batch
	BatchInterval time.Duration `json:"batchInterval"` // 30 seconds
	MaxWaitTime   time.Duration `json:"maxWaitTime"`   // 5 minutes
	RetryAttempts int           `json:"retryAttempts"` // 3 attempts
	RetryBackoff  time.Duration `json:"retryBackoff"`  // exponential backoff
}

// DeviceRepository defines the interface for device data persistence
type DeviceRepository interface {
	UpdateDevice(deviceID string, update DeviceUpdateData) error
	UpdateDevicesBatch(updates map[string]DeviceUpdateData) error
}

// Error definitions for batch processing
var (
	ErrInvalidBatchSize     = fmt.Errorf("invalid batch size: must be greater than 0")
	ErrInvalidBatchInterval = fmt.Errorf("invalid batch interval: must be greater than 0")
	ErrInvalidMaxWaitTime   = fmt.Errorf("invalid max wait time: must be greater than 0")
	ErrInvalidRetryAttempts = fmt.Errorf("invalid retry attempts: must be greater than or equal to 0")
	ErrInvalidRetryBackoff  = fmt.Errorf("invalid retry backoff: must be greater than or equal to 0")
)
