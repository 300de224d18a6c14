package integration

import (
	"testing"
	"time"

	"parkhub-backend/internal/websocket"
	"parkhub-backend/pkg/batch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockDeviceRepository implements the batch.DeviceRepository interface for testing
type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) UpdateDevice(deviceID string, update batch.DeviceUpdateData) error {
	args := m.Called(deviceID, update)
	return args.Error(0)
}

func (m *MockDeviceRepository) UpdateDevicesBatch(updates map[string]batch.DeviceUpdateData) error {
	args := m.Called(updates)
	return args.Error(0)
}

// TestWebSocketBatchIntegration tests the complete integration between batch processor and WebSocket broadcasting
func TestWebSocketBatchIntegration(t *testing.T) {
	// Create WebSocket manager
	wsManager := websocket.NewManager()
	err := wsManager.Start()
	assert.NoError(t, err)
	defer wsManager.Stop()

	// Create mock repository
	mockRepo := new(MockDeviceRepository)

	// Create batch processor with WebSocket integration
	config := batch.BatchConfig{
		MaxBatchSize:  3,
		BatchInterval: 100 * time.Millisecond,
		MaxWaitTime:   500 * time.Millisecond,
		RetryAttempts: 1,
		RetryBackoff:  10 * time.Millisecond,
	}

	batchProcessor := batch.NewBatchProcessorWithWebSocket(config, mockRepo, wsManager)

	// Start batch processor
	err = batchProcessor.Start()
	assert.NoError(t, err)
	defer batchProcessor.Stop()

	// Set up mock expectations for successful batch processing
	mockRepo.On("UpdateDevicesBatch", mock.AnythingOfType("map[string]batch.DeviceUpdateData")).Return(nil)

	// Create test device heartbeats
	updates := []struct {
		deviceID string
		data     batch.DeviceUpdateData
	}{
		{
			deviceID: "gate-entry-1",
			data: batch.DeviceUpdateData{
				Status:    func() *string { s := "online"; return &s }(),
				Timestamp: time.Now(),
			},
		},
		{
			deviceID: "kiosk-1",
			data: batch.DeviceUpdateData{
				PaperLevel: func() *int { p := 10; return &p }(), // Low paper - should be high priority
				Timestamp:  time.Now(),
			},
		},
		{
			deviceID: "kiosk-2",
			data: batch.DeviceUpdateData{
				Status:    func() *string { s := "fault"; return &s }(), // Fault - should be high priority
				Timestamp: time.Now(),
			},
		},
	}

	// Add updates to batch processor
	for _, update := range updates {
		err := batchProcessor.AddUpdate(update.deviceID, update.data)
		assert.NoError(t, err)
	}

	// Wait for batch processing to complete
	time.Sleep(200 * time.Millisecond)

	// Verify that the repository was called
	mockRepo.AssertExpectations(t)

	// Verify batch statistics
	stats := batchProcessor.GetBatchStats()
	assert.Greater(t, stats.BatchesProcessed, 0)
	assert.Equal(t, int64(3), stats.TotalUpdates)
}

// TestWebSocketBroadcastingPriority tests that critical device states are prioritized correctly
func TestWebSocketBroadcastingPriority(t *testing.T) {
	// Create WebSocket manager
	wsManager := websocket.NewManager()
	err := wsManager.Start()
	assert.NoError(t, err)
	defer wsManager.Stop()

	// Create mock repository
	mockRepo := new(MockDeviceRepository)

	// Create batch processor with WebSocket integration
	config := batch.BatchConfig{
		MaxBatchSize:  5,
		BatchInterval: 50 * time.Millisecond,
		MaxWaitTime:   200 * time.Millisecond,
		RetryAttempts: 1,
		RetryBackoff:  10 * time.Millisecond,
	}

	batchProcessor := batch.NewBatchProcessorWithWebSocket(config, mockRepo, wsManager)

	// Start batch processor
	err = batchProcessor.Start()
	assert.NoError(t, err)
	defer batchProcessor.Stop()

	// Set up mock expectations
	mockRepo.On("UpdateDevicesBatch", mock.AnythingOfType("map[string]batch.DeviceUpdateData")).Return(nil)

	// Create updates with different priority levels
	criticalUpdate := batch.DeviceUpdateData{
		Status:    func() *string { s := "offline"; return &s }(), // Device dropped off
		Timestamp: time.Now(),
	}

	highPriorityUpdate := batch.DeviceUpdateData{
		PaperLevel: func() *int { p := 5; return &p }(), // Nearly out of paper
		Timestamp:  time.Now(),
	}

	normalUpdate := batch.DeviceUpdateData{
		PaperLevel: func() *int { p := 80; return &p }(), // Healthy paper level
		Timestamp:  time.Now(),
	}

	// Add updates to batch processor
	err = batchProcessor.AddUpdate("offline-gate", criticalUpdate)
	assert.NoError(t, err)

	err = batchProcessor.AddUpdate("low-paper-kiosk", highPriorityUpdate)
	assert.NoError(t, err)

	err = batchProcessor.AddUpdate("healthy-kiosk", normalUpdate)
	assert.NoError(t, err)

	// Wait for batch processing
	time.Sleep(100 * time.Millisecond)

	// Verify repository was called
	mockRepo.AssertExpectations(t)
}

// TestWebSocketFilteredBroadcasting tests that events are filtered correctly based on client subscriptions
func TestWebSocketFilteredBroadcasting(t *testing.T) {
	// Create WebSocket manager
	wsManager := websocket.NewManager()
	err := wsManager.Start()
	assert.NoError(t, err)
	defer wsManager.Stop()

	// Test direct broadcasting with filters
	event1 := websocket.LotEvent{
		VehicleNumber: "KAA 123A",
		EventType:     websocket.EventTypeEntry,
		Data: map[string]interface{}{
			"status": "parked",
		},
		Timestamp: time.Now(),
		Priority:  websocket.PriorityMedium,
	}

	event2 := websocket.LotEvent{
		VehicleNumber: "KBB 456B",
		EventType:     websocket.EventTypePayment,
		Data: map[string]interface{}{
			"amount": 4.50,
		},
		Timestamp: time.Now(),
		Priority:  websocket.PriorityLow,
	}

	// Test broadcasting individual events
	err = wsManager.BroadcastEvent(event1)
	assert.NoError(t, err)

	// Test broadcasting batch events
	batchEvents := []websocket.LotEvent{event1, event2}
	err = wsManager.BroadcastBatchEvents(batchEvents)
	assert.NoError(t, err)

	// Verify client stats
	stats := wsManager.GetClientStats()
	assert.Equal(t, 0, stats.TotalClients) // No clients connected in this test
}

// TestBatchProcessorWebSocketIntegrationFailure tests graceful handling when WebSocket broadcasting fails
func TestBatchProcessorWebSocketIntegrationFailure(t *testing.T) {
	// Create WebSocket manager but don't start it to simulate failure
	wsManager := websocket.NewManager()
	// Note: Not starting the manager to simulate failure conditions

	// Create mock repository
	mockRepo := new(MockDeviceRepository)

	// Create batch processor with WebSocket integration
	config := batch.BatchConfig{
		MaxBatchSize:  2,
		BatchInterval: 50 * time.Millisecond,
		MaxWaitTime:   200 * time.Millisecond,
		RetryAttempts: 1,
		RetryBackoff:  10 * time.Millisecond,
	}

	batchProcessor := batch.NewBatchProcessorWithWebSocket(config, mockRepo, wsManager)

	// Start batch processor
	err := batchProcessor.Start()
	assert.NoError(t, err)
	defer batchProcessor.Stop()

	// Set up mock expectations - database update should still succeed
	mockRepo.On("UpdateDevicesBatch", mock.AnythingOfType("map[string]batch.DeviceUpdateData")).Return(nil)

	// Create test update
	updateData := batch.DeviceUpdateData{
		PaperLevel: func() *int { p := 30; return &p }(),
		Timestamp:  time.Now(),
	}

	// Add update to batch processor
	err = batchProcessor.AddUpdate("test-kiosk", updateData)
	assert.NoError(t, err)

	// Wait for batch processing
	time.Sleep(100 * time.Millisecond)

	// Verify that database update still succeeded even if WebSocket broadcasting failed
	mockRepo.AssertExpectations(t)

	// Verify batch statistics show successful processing
	stats := batchProcessor.GetBatchStats()
	assert.Greater(t, stats.BatchesProcessed, 0)
	assert.Equal(t, int64(1), stats.TotalUpdates)
}

// TestRealTimeUpdateDelivery tests the complete flow from batch processing to client delivery
func TestRealTimeUpdateDelivery(t *testing.T) {
	// This test would require a more complex setup with actual WebSocket connections
	// For now, we'll test the components individually and verify integration points

	// Create WebSocket manager
	wsManager := websocket.NewManager()
	err := wsManager.Start()
	assert.NoError(t, err)
	defer wsManager.Stop()

	// Create mock repository
	mockRepo := new(MockDeviceRepository)

	// Create batch processor
	config := batch.BatchConfig{
		MaxBatchSize:  1, // Process immediately
		BatchInterval: 10 * time.Millisecond,
		MaxWaitTime:   50 * time.Millisecond,
		RetryAttempts: 1,
		RetryBackoff:  5 * time.Millisecond,
	}

	batchProcessor := batch.NewBatchProcessorWithWebSocket(config, mockRepo, wsManager)

	// Start batch processor
	err = batchProcessor.Start()
	assert.NoError(t, err)
	defer batchProcessor.Stop()

	// Set up mock expectations
	mockRepo.On("UpdateDevicesBatch", mock.AnythingOfType("map[string]batch.DeviceUpdateData")).Return(nil)

	// Create a fault heartbeat that should be broadcast immediately
	criticalUpdate := batch.DeviceUpdateData{
		Status:     func() *string { s := "fault"; return &s }(),
		PaperLevel: func() *int { p := 2; return &p }(),
		Timestamp:  time.Now(),
	}

	// Add critical update
	err = batchProcessor.AddUpdate("faulty-kiosk", criticalUpdate)
	assert.NoError(t, err)

	// Wait for processing
	time.Sleep(50 * time.Millisecond)

	// Verify processing completed
	mockRepo.AssertExpectations(t)

	// Verify statistics
	stats := batchProcessor.GetBatchStats()
	assert.Greater(t, stats.BatchesProcessed, 0)
	assert.Equal(t, int64(1), stats.TotalUpdates)
	assert.Equal(t, float64(0), stats.ErrorRate) // No errors expected
}
