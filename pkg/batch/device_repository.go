package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkhub-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeviceRepositoryAdapter adapts the device repository to support batch operations
type DeviceRepositoryAdapter struct {
	repo       *repository.DeviceRepository
	collection *mongo.Collection
}

// NewDeviceRepositoryAdapter creates a new adapter for batch operations
func NewDeviceRepositoryAdapter(repo *repository.DeviceRepository, db *mongo.Database) *DeviceRepositoryAdapter {
	return &DeviceRepositoryAdapter{
		repo:       repo,
		collection: db.Collection("devices"),
	}
}

// UpdateDevice updates a single device with the provided heartbeat data
func (dra *DeviceRepositoryAdapter) UpdateDevice(deviceID string, update DeviceUpdateData) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(deviceID)
	if err != nil {
		return fmt.Errorf("invalid device ID %s: %w", deviceID, err)
	}

	// Build update document with only non-nil fields
	updateDoc := bson.M{
		"last_heartbeat": update.Timestamp,
		"updated_at":     time.Now(),
	}

	if update.Status != nil {
		updateDoc["status"] = *update.Status
	}
	if update.PaperLevel != nil {
		updateDoc["paper_level"] = *update.PaperLevel
	}

	result, err := dra.collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateDoc},
	)
	if err != nil {
		return fmt.Errorf("failed to update device %s: %w", deviceID, err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("device %s not found", deviceID)
	}

	return nil
}

// UpdateDevicesBatch updates multiple devices in a single batch operation
func (dra *DeviceRepositoryAdapter) UpdateDevicesBatch(updates map[string]DeviceUpdateData) error {
	if len(updates) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Use MongoDB bulk write operations for efficiency
	var operations []mongo.WriteModel

	for deviceID, update := range updates {
		objectID, err := primitive.ObjectIDFromHex(deviceID)
		if err != nil {
			return fmt.Errorf("invalid device ID %s: %w", deviceID, err)
		}

		// Build update document with only non-nil fields
		updateDoc := bson.M{
			"last_heartbeat": update.Timestamp,
			"updated_at":     time.Now(),
		}

		if update.Status != nil {
			updateDoc["status"] = *update.Status
		}
		if update.PaperLevel != nil {
			updateDoc["paper_level"] = *update.PaperLevel
		}

		operation := mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": objectID}).
			SetUpdate(bson.M{"$set": updateDoc}).
			SetUpsert(false)

		operations = append(operations, operation)
	}

	// Execute bulk write
	result, err := dra.collection.BulkWrite(ctx, operations)
	if err != nil {
		return fmt.Errorf("bulk write failed: %w", err)
	}

	// Check if all updates were successful
	expectedUpdates := int64(len(updates))
	if result.ModifiedCount != expectedUpdates {
		return fmt.Errorf("expected %d updates, but only %d were modified", expectedUpdates, result.ModifiedCount)
	}

	return nil
}

// ValidateDeviceExists checks if a device exists before processing updates
func (dra *DeviceRepositoryAdapter) ValidateDeviceExists(deviceID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(deviceID)
	if err != nil {
		return fmt.Errorf("invalid device ID %s: %w", deviceID, err)
	}

	count, err := dra.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to validate device %s: %w", deviceID, err)
	}

	if count == 0 {
		return errors.New("device not found")
	}

	return nil
}

// GetDeviceLastHeartbeat returns the last heartbeat timestamp for a device
func (dra *DeviceRepositoryAdapter) GetDeviceLastHeartbeat(deviceID string) (time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(deviceID)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid device ID %s: %w", deviceID, err)
	}

	var result struct {
		LastHeartbeat time.Time `bson:"last_heartbeat"`
	}

	err = dra.collection.FindOne(
		ctx,
		bson.M{"_id": objectID},
		options.FindOne().SetProjection(bson.M{"last_heartbeat": 1}),
	).Decode(&result)

	if err != nil {
		if err == mongo.ErrNoDocuments {
			return time.Time{}, errors.New("device not found")
		}
		return time.Time{}, fmt.Errorf("failed to get last heartbeat for device %s: %w", deviceID, err)
	}

	return result.LastHeartbeat, nil
}
