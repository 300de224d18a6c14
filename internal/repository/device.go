package repository

import (
	"context"
	"errors"
	"time"

	"parkhub-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DeviceRepository struct {
	collection *mongo.Collection
}

func NewDeviceRepository(db *mongo.Database) *DeviceRepository {
	return &DeviceRepository{
		collection: db.Collection("devices"),
	}
}

func (r *DeviceRepository) Create(device *models.Device) (*models.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, device)
	if err != nil {
		return nil, err
	}

	device.ID = result.InsertedID.(primitive.ObjectID)
	return device, nil
}

func (r *DeviceRepository) FindByID(id string) (*models.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid device ID")
	}

	var device models.Device
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&device)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("device not found")
		}
		return nil, err
	}

	return &device, nil
}

func (r *DeviceRepository) FindAll() ([]*models.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var devices []*models.Device
	for cursor.Next(ctx) {
		var device models.Device
		if err := cursor.Decode(&device); err != nil {
			return nil, err
		}
		devices = append(devices, &device)
	}

	return devices, nil
}

func (r *DeviceRepository) FindByKind(kind string) ([]*models.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"kind": kind}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var devices []*models.Device
	for cursor.Next(ctx) {
		var device models.Device
		if err := cursor.Decode(&device); err != nil {
			return nil, err
		}
		devices = append(devices, &device)
	}

	return devices, nil
}

func (r *DeviceRepository) Update(id string, device *models.Device) (*models.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid device ID")
	}

	device.UpdatedAt = time.Now()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": device},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Device
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("device not found")
		}
		return nil, err
	}

	return &updated, nil
}

func (r *DeviceRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid device ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return errors.New("device not found")
	}

	return nil
}

// BulkWriteStatus applies a batch of heartbeat-driven status updates in a
// single bulk write. Used by the batch processor; updates for unknown device
// IDs are skipped silently.
func (r *DeviceRepository) BulkWriteStatus(updates []DeviceStatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		objectID, err := primitive.ObjectIDFromHex(u.DeviceID)
		if err != nil {
			continue
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": objectID}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"status":         u.Status,
					"paper_level":    u.PaperLevel,
					"last_heartbeat": u.At,
					"updated_at":     time.Now(),
				},
			}))
	}

	if len(writes) == 0 {
		return nil
	}

	opts := options.BulkWrite().SetOrdered(false)
	_, err := r.collection.BulkWrite(ctx, writes, opts)
	return err
}

// MarkOfflineBefore flags devices whose last heartbeat predates the cutoff.
// Returns the devices transitioned so callers can raise offline notifications.
func (r *DeviceRepository) MarkOfflineBefore(cutoff time.Time) ([]*models.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":         models.DeviceStatusOnline,
		"last_heartbeat": bson.M{"$lt": cutoff},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stale []*models.Device
	for cursor.Next(ctx) {
		var device models.Device
		if err := cursor.Decode(&device); err != nil {
			return nil, err
		}
		stale = append(stale, &device)
	}

	if len(stale) == 0 {
		return nil, nil
	}

	_, err = r.collection.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{
			"status":     models.DeviceStatusOffline,
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return nil, err
	}

	return stale, nil
}

// CreateIndexes creates necessary indexes for the devices collection
func (r *DeviceRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "kind", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "last_heartbeat", Value: 1},
			},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// DeviceStatusUpdate is one heartbeat's worth of device state, queued through
// the batch processor before being flushed here.
type DeviceStatusUpdate struct {
	DeviceID   string    `json:"device_id"`
	Status     string    `json:"status"`
	PaperLevel int       `json:"paper_level"`
	At         time.Time `json:"at"`
}
