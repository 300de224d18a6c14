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

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

func (r *NotificationRepository) Create(notification *models.Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, notification)
	if err != nil {
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		notification.ID = oid
	}
	return nil
}

func (r *NotificationRepository) FindByID(id string) (*models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid notification ID")
	}

	var notification models.Notification
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&notification)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("notification not found")
		}
		return nil, err
	}

	return &notification, nil
}

func (r *NotificationRepository) FindAll() ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Newest first; the feed contract is descending by timestamp.
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeNotifications(ctx, cursor)
}

func (r *NotificationRepository) FindByType(notificationType string) ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"type": notificationType}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeNotifications(ctx, cursor)
}

func (r *NotificationRepository) FindUnresolved() ([]models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"resolved": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeNotifications(ctx, cursor)
}

// HasUnresolved reports whether an unresolved record of the given type exists
// for the session. Backed by the compound (session_id, type, resolved) index.
func (r *NotificationRepository) HasUnresolved(sessionID, notificationType string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"session_id": sessionID,
		"type":       notificationType,
		"resolved":   false,
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *NotificationRepository) MarkRead(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid notification ID")
	}

	update := bson.M{"$set": bson.M{"read": true}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("notification not found")
	}

	return nil
}

func (r *NotificationRepository) MarkAllRead() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx, bson.M{"read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// ResolveBySession marks every unresolved overdue_exit record for the session
// resolved and read, in one atomic update. This is the durable mirror of the
// engine's resolve rule.
func (r *NotificationRepository) ResolveBySession(sessionID string, at time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"session_id": sessionID,
		"type":       models.NotificationTypeOverdueExit,
		"resolved":   false,
	}
	update := bson.M{
		"$set": bson.M{
			"resolved":    true,
			"read":        true,
			"resolved_at": at,
		},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// ClearReadAndResolved removes the records an explicit clear may drop:
// read-and-resolved overdue alerts, and read records of any other type.
// Unread or unresolved overdue alerts always survive.
func (r *NotificationRepository) ClearReadAndResolved() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"$or": []bson.M{
			{
				"type":     models.NotificationTypeOverdueExit,
				"read":     true,
				"resolved": true,
			},
			{
				"type": bson.M{"$ne": models.NotificationTypeOverdueExit},
				"read": true,
			},
		},
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// DeleteClearedBefore purges clearable records older than the cutoff. Used by
// the retention service; applies the same read/resolved gate as an explicit
// clear.
func (r *NotificationRepository) DeleteClearedBefore(cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"timestamp": bson.M{"$lt": cutoff},
		"$or": []bson.M{
			{
				"type":     models.NotificationTypeOverdueExit,
				"read":     true,
				"resolved": true,
			},
			{
				"type": bson.M{"$ne": models.NotificationTypeOverdueExit},
				"read": true,
			},
		},
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *NotificationRepository) CountUnread() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"read": false})
}

func (r *NotificationRepository) CountUnresolved() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"resolved": false})
}

// CreateIndexes creates necessary indexes for the notifications collection
func (r *NotificationRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "read", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
				{Key: "type", Value: 1},
				{Key: "resolved", Value: 1},
			},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func decodeNotifications(ctx context.Context, cursor *mongo.Cursor) ([]models.Notification, error) {
	var notifications []models.Notification
	for cursor.Next(ctx) {
		var notification models.Notification
		if err := cursor.Decode(&notification); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, nil
}
