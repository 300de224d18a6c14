package batch

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"parkhub-backend/internal/models"
	"parkhub-backend/internal/websocket"
)

// DefaultBatchProcessor implements the BatchProcessor interface
type DefaultBatchProcessor struct {
	config     BatchConfig
	repository DeviceRepository
	wsManager  websocket.EventManager

	// Internal state
	updates    map[string]DeviceUpdateData
	updatesMux sync.RWMutex

	// Worker control
	ctx      context.Context
	cancel   context.CancelFunc
	workerWg sync.WaitGroup

	// Statistics
	stats    BatchStats
	statsMux sync.RWMutex

	// Channels for communication
	updateChan chan updateRequest
	stopChan   chan struct{}
}

type updateRequest struct {
	deviceID string
	update   DeviceUpdateData
}

// NewBatchProcessor creates a new batch processor with the given configuration
func NewBatchProcessor(config BatchConfig, repository DeviceRepository) *DefaultBatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())

	return &DefaultBatchProcessor{
		config:     config,
		repository: repository,
		updates:    make(map[string]DeviceUpdateData),
		ctx:        ctx,
		cancel:     cancel,
		updateChan: make(chan updateRequest, config.MaxBatchSize*2), // Buffer for heartbeat bursts
		stopChan:   make(chan struct{}),
		stats: BatchStats{
			LastProcessedAt: time.Now(),
		},
	}
}

// NewBatchProcessorWithWebSocket creates a new batch processor with WebSocket broadcasting support
func NewBatchProcessorWithWebSocket(config BatchConfig, repository DeviceRepository, wsManager websocket.EventManager) *DefaultBatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())

	return &DefaultBatchProcessor{
		config:     config,
		repository: repository,
		wsManager:  wsManager,
		updates:    make(map[string]DeviceUpdateData),
		ctx:        ctx,
		cancel:     cancel,
		updateChan: make(chan updateRequest, config.MaxBatchSize*2),
		stopChan:   make(chan struct{}),
		stats: BatchStats{
			LastProcessedAt: time.Now(),
		},
	}
}

// SetWebSocketManager sets the WebSocket manager for broadcasting updates
func (bp *DefaultBatchProcessor) SetWebSocketManager(wsManager websocket.EventManager) {
	bp.wsManager = wsManager
}

// AddUpdate adds a device heartbeat to the batch queue
func (bp *DefaultBatchProcessor) AddUpdate(deviceID string, update DeviceUpdateData) error {
	select {
	case bp.updateChan <- updateRequest{deviceID: deviceID, update: update}:
		return nil
	case <-bp.ctx.Done():
		return fmt.Errorf("batch processor is stopped")
	default:
		return fmt.Errorf("update queue is full, dropping heartbeat for device %s", deviceID)
	}
}

// ProcessBatch processes the current batch of updates
func (bp *DefaultBatchProcessor) ProcessBatch() error {
	bp.updatesMux.Lock()
	currentUpdates := make(map[string]DeviceUpdateData)
	for k, v := range bp.updates {
		currentUpdates[k] = v
	}
	bp.updates = make(map[string]DeviceUpdateData) // Clear the updates map
	bp.updatesMux.Unlock()

	if len(currentUpdates) == 0 {
		return nil
	}

	startTime := time.Now()

	// Split into smaller batches if necessary
	batches := bp.splitIntoBatches(currentUpdates)

	var totalErrors int
	for _, batch := range batches {
		if err := bp.processSingleBatch(batch); err != nil {
			log.Printf("Error processing batch: %v", err)
			totalErrors++
		}
	}

	// Update statistics
	bp.updateStats(len(batches), len(currentUpdates), totalErrors, time.Since(startTime))

	if totalErrors > 0 {
		return fmt.Errorf("failed to process %d out of %d batches", totalErrors, len(batches))
	}

	return nil
}

// processSingleBatch processes a single batch with retry logic
func (bp *DefaultBatchProcessor) processSingleBatch(batch map[string]DeviceUpdateData) error {
	for attempt := 0; attempt <= bp.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoffDuration := time.Duration(math.Pow(2, float64(attempt-1))) * bp.config.RetryBackoff
			log.Printf("Retrying batch processing after %v (attempt %d/%d)", backoffDuration, attempt, bp.config.RetryAttempts)

			select {
			case <-time.After(backoffDuration):
			case <-bp.ctx.Done():
				return fmt.Errorf("batch processor stopped during retry")
			}
		}

		err := bp.repository.UpdateDevicesBatch(batch)
		if err == nil {
			// Broadcast updates via WebSocket after successful database update
			bp.broadcastBatchUpdates(batch)
			return nil // Success
		}

		log.Printf("Batch processing attempt %d failed: %v", attempt+1, err)

		// If this is the last attempt, we'll fall back to individual updates
		if attempt == bp.config.RetryAttempts {
			log.Printf("All batch retries failed, falling back to individual updates")
			return bp.fallbackToIndividualUpdates(batch)
		}
	}

	// This should never be reached due to the return in the loop
	return fmt.Errorf("unexpected error in batch processing")
}

// fallbackToIndividualUpdates processes updates individually when batch processing fails
func (bp *DefaultBatchProcessor) fallbackToIndividualUpdates(batch map[string]DeviceUpdateData) error {
	var errors []string

	for deviceID, update := range batch {
		if err := bp.repository.UpdateDevice(deviceID, update); err != nil {
			errors = append(errors, fmt.Sprintf("device %s: %v", deviceID, err))
			bp.incrementFailedUpdates()
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("individual update failures: %v", errors)
	}

	return nil
}

// splitIntoBatches splits a large update map into smaller batches
func (bp *DefaultBatchProcessor) splitIntoBatches(updates map[string]DeviceUpdateData) []map[string]DeviceUpdateData {
	if len(updates) <= bp.config.MaxBatchSize {
		return []map[string]DeviceUpdateData{updates}
	}

	var batches []map[string]DeviceUpdateData
	currentBatch := make(map[string]DeviceUpdateData)

	for deviceID, update := range updates {
		currentBatch[deviceID] = update

		if len(currentBatch) >= bp.config.MaxBatchSize {
			batches = append(batches, currentBatch)
			currentBatch = make(map[string]DeviceUpdateData)
		}
	}

	// Add remaining updates
	if len(currentBatch) > 0 {
		batches = append(batches, currentBatch)
	}

	return batches
}

// Start starts the batch processing worker
func (bp *DefaultBatchProcessor) Start() error {
	bp.workerWg.Add(1)
	go bp.worker()
	log.Println("Batch processor started")
	return nil
}

// Stop stops the batch processing worker
func (bp *DefaultBatchProcessor) Stop() error {
	bp.cancel()
	close(bp.stopChan)
	bp.workerWg.Wait()
	log.Println("Batch processor stopped")
	return nil
}

// worker is the main worker goroutine that processes updates
func (bp *DefaultBatchProcessor) worker() {
	defer bp.workerWg.Done()

	ticker := time.NewTicker(bp.config.BatchInterval)
	defer ticker.Stop()

	maxWaitTimer := time.NewTimer(bp.config.MaxWaitTime)
	defer maxWaitTimer.Stop()

	for {
		select {
		case update := <-bp.updateChan:
			bp.addToCurrentBatch(update.deviceID, update.update)

			// Reset max wait timer when we receive an update
			if !maxWaitTimer.Stop() {
				<-maxWaitTimer.C
			}
			maxWaitTimer.Reset(bp.config.MaxWaitTime)

			// Check if batch is full
			if bp.getCurrentBatchSize() >= bp.config.MaxBatchSize {
				if err := bp.ProcessBatch(); err != nil {
					log.Printf("Error processing full batch: %v", err)
				}
			}

		case <-ticker.C:
			// Process batch on interval
			if err := bp.ProcessBatch(); err != nil {
				log.Printf("Error processing interval batch: %v", err)
			}

		case <-maxWaitTimer.C:
			// Process batch when max wait time is reached
			if err := bp.ProcessBatch(); err != nil {
				log.Printf("Error processing max wait batch: %v", err)
			}
			maxWaitTimer.Reset(bp.config.MaxWaitTime)

		case <-bp.ctx.Done():
			// Process remaining updates before stopping
			if err := bp.ProcessBatch(); err != nil {
				log.Printf("Error processing final batch: %v", err)
			}
			return
		}
	}
}

// addToCurrentBatch adds an update to the current batch
func (bp *DefaultBatchProcessor) addToCurrentBatch(deviceID string, update DeviceUpdateData) {
	bp.updatesMux.Lock()
	defer bp.updatesMux.Unlock()
	bp.updates[deviceID] = update
}

// getCurrentBatchSize returns the current batch size
func (bp *DefaultBatchProcessor) getCurrentBatchSize() int {
	bp.updatesMux.RLock()
	defer bp.updatesMux.RUnlock()
	return len(bp.updates)
}

// SetBatchSize updates the batch size configuration
func (bp *DefaultBatchProcessor) SetBatchSize(size int) {
	bp.config.MaxBatchSize = size
}

// SetBatchInterval updates the batch interval configuration
func (bp *DefaultBatchProcessor) SetBatchInterval(interval time.Duration) {
	bp.config.BatchInterval = interval
}

// GetBatchStats returns current batch processing statistics
func (bp *DefaultBatchProcessor) GetBatchStats() BatchStats {
	bp.statsMux.RLock()
	defer bp.statsMux.RUnlock()
	return bp.stats
}

// updateStats updates the batch processing statistics
func (bp *DefaultBatchProcessor) updateStats(batchCount, updateCount, errorCount int, processingTime time.Duration) {
	bp.statsMux.Lock()
	defer bp.statsMux.Unlock()

	bp.stats.BatchesProcessed += batchCount
	bp.stats.TotalUpdates += int64(updateCount)
	bp.stats.LastProcessedAt = time.Now()
	bp.stats.ProcessingTime = processingTime

	// Calculate average batch size
	if bp.stats.BatchesProcessed > 0 {
		bp.stats.AverageSize = float64(bp.stats.TotalUpdates) / float64(bp.stats.BatchesProcessed)
	}

	// Calculate error rate
	if bp.stats.TotalUpdates > 0 {
		bp.stats.ErrorRate = float64(bp.stats.FailedUpdates) / float64(bp.stats.TotalUpdates)
	}
}

// incrementFailedUpdates increments the failed updates counter
func (bp *DefaultBatchProcessor) incrementFailedUpdates() {
	bp.statsMux.Lock()
	defer bp.statsMux.Unlock()
	bp.stats.FailedUpdates++
}

// broadcastBatchUpdates broadcasts device updates via WebSocket after successful batch processing
func (bp *DefaultBatchProcessor) broadcastBatchUpdates(batch map[string]DeviceUpdateData) {
	if bp.wsManager == nil {
		return // No WebSocket manager configured
	}

	var events []websocket.LotEvent

	for deviceID, updateData := range batch {
		events = append(events, bp.convertToLotEvent(deviceID, updateData))
	}

	// Broadcast all events in the batch
	if err := bp.wsManager.BroadcastBatchEvents(events); err != nil {
		log.Printf("Failed to broadcast batch updates via WebSocket: %v", err)
	}
}

// convertToLotEvent converts DeviceUpdateData to the WebSocket LotEvent format
func (bp *DefaultBatchProcessor) convertToLotEvent(deviceID string, updateData DeviceUpdateData) websocket.LotEvent {
	data := map[string]interface{}{
		"deviceId": deviceID,
	}
	priority := websocket.PriorityLow // Heartbeats are routine

	if updateData.Status != nil {
		data["status"] = *updateData.Status

		// Fault and offline transitions get high priority
		if *updateData.Status == models.DeviceStatusFault || *updateData.Status == models.DeviceStatusOffline {
			priority = websocket.PriorityHigh
		}
	}

	if updateData.PaperLevel != nil {
		data["paperLevel"] = *updateData.PaperLevel

		if *updateData.PaperLevel < models.PaperLevelRefillThreshold {
			priority = websocket.PriorityMedium
		}
	}

	return websocket.LotEvent{
		EventType: websocket.EventTypeDeviceStatus,
		Data:      data,
		Timestamp: updateData.Timestamp,
		Priority:  priority,
	}
}
