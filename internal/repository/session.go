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

type SessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{
		collection: db.Collection("sessions"),
	}
}

func (r *SessionRepository) Create(session *models.Session) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return nil, err
	}

	session.ID = result.InsertedID.(primitive.ObjectID)
	return session, nil
}

func (r *SessionRepository) FindByID(id string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid session ID")
	}

	var session models.Session
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("session not found")
		}
		return nil, err
	}

	return &session, nil
}

func (r *SessionRepository) FindAll() ([]*models.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Newest entries first
	opts := options.Find().SetSort(bson.D{{Key: "entry_time", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeSessions(ctx, cursor)
}

// FindParked returns sessions whose vehicles are still in the lot,
// regardless of payment state.
func (r *SessionRepository) FindParked() ([]*models.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"exit_time": bson.M{"$exists": false}}
	opts := options.Find().SetSort(bson.D{{Key: "entry_time", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeSessions(ctx, cursor)
}

// FindParkedByVehicleNumber finds the open session for a plate, if any.
func (r *SessionRepository) FindParkedByVehicleNumber(vehicleNumber string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"vehicle_number": vehicleNumber,
		"exit_time":      bson.M{"$exists": false},
	}

	var session models.Session
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("session not found")
		}
		return nil, err
	}

	return &session, nil
}

func (r *SessionRepository) FindByDateRange(startDate, endDate time.Time) ([]*models.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"entry_time": bson.M{
			"$gte": startDate,
			"$lte": endDate,
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "entry_time", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeSessions(ctx, cursor)
}

// MarkPaid records a completed payment or waiver. PaymentProcessedTime is set
// exactly once; a second call for the same session is rejected.
func (r *SessionRepository) MarkPaid(id string, amount float64, method, waiverReason string, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid session ID")
	}

	filter := bson.M{
		"_id":                    objectID,
		"payment_processed_time": bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{
			"payment_processed_time": at,
			"amount":                 amount,
			"payment_method":         method,
			"waiver_reason":          waiverReason,
			"status":                 models.SessionStatusPaid,
			"updated_at":             time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("session not found or already paid")
	}

	return nil
}

// MarkExited records the physical exit.
func (r *SessionRepository) MarkExited(id, deviceID string, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid session ID")
	}

	filter := bson.M{
		"_id":       objectID,
		"exit_time": bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{
			"exit_time":      at,
			"exit_device_id": deviceID,
			"status":         models.SessionStatusExited,
			"updated_at":     time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("session not found or already exited")
	}

	return nil
}

func (r *SessionRepository) CountParked() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"exit_time": bson.M{"$exists": false}})
}

// RevenueStatistics aggregates paid sessions within the range.
func (r *SessionRepository) RevenueStatistics(startDate, endDate time.Time) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{
			"$match": bson.M{
				"payment_processed_time": bson.M{
					"$gte": startDate,
					"$lte": endDate,
				},
			},
		},
		{
			"$group": bson.M{
				"_id":            nil,
				"total_revenue":  bson.M{"$sum": "$amount"},
				"paid_sessions":  bson.M{"$sum": 1},
				"waived_sessions": bson.M{
					"$sum": bson.M{
						"$cond": []interface{}{
							bson.M{"$eq": []interface{}{"$payment_method", models.PaymentMethodWaiver}},
							1,
							0,
						},
					},
				},
				"cash_revenue": bson.M{
					"$sum": bson.M{
						"$cond": []interface{}{
							bson.M{"$eq": []interface{}{"$payment_method", models.PaymentMethodCash}},
							"$amount",
							0,
						},
					},
				},
				"card_revenue": bson.M{
					"$sum": bson.M{
						"$cond": []interface{}{
							bson.M{"$eq": []interface{}{"$payment_method", models.PaymentMethodCard}},
							"$amount",
							0,
						},
					},
				},
			},
		},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result map[string]interface{}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// CreateIndexes creates necessary indexes for the sessions collection
func (r *SessionRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "vehicle_number", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "entry_time", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "vehicle_number", Value: 1},
				{Key: "exit_time", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "payment_processed_time", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func decodeSessions(ctx context.Context, cursor *mongo.Cursor) ([]*models.Session, error) {
	var sessions []*models.Session
	for cursor.Next(ctx) {
		var session models.Session
		if err := cursor.Decode(&session); err != nil {
			return nil, err
		}
		sessions = append(sessions, &session)
	}
	return sessions, nil
}
