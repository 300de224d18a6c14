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

type PassRepository struct {
	collection *mongo.Collection
}

func NewPassRepository(db *mongo.Database) *PassRepository {
	return &PassRepository{
		collection: db.Collection("passes"),
	}
}

func (r *PassRepository) Create(pass *models.Pass) (*models.Pass, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, pass)
	if err != nil {
		return nil, err
	}

	pass.ID = result.InsertedID.(primitive.ObjectID)
	return pass, nil
}

func (r *PassRepository) FindByID(id string) (*models.Pass, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid pass ID")
	}

	var pass models.Pass
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&pass)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("pass not found")
		}
		return nil, err
	}

	return &pass, nil
}

func (r *PassRepository) FindAll() ([]*models.Pass, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "valid_until", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var passes []*models.Pass
	for cursor.Next(ctx) {
		var pass models.Pass
		if err := cursor.Decode(&pass); err != nil {
			return nil, err
		}
		passes = append(passes, &pass)
	}

	return passes, nil
}

// FindValidByVehicleNumber returns an active pass covering the given instant
// for the plate, if one exists. Entry uses this for fee exemption.
func (r *PassRepository) FindValidByVehicleNumber(vehicleNumber string, at time.Time) (*models.Pass, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"vehicle_number": vehicleNumber,
		"active":         true,
		"valid_from":     bson.M{"$lte": at},
		"valid_until":    bson.M{"$gte": at},
	}

	var pass models.Pass
	err := r.collection.FindOne(ctx, filter).Decode(&pass)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("pass not found")
		}
		return nil, err
	}

	return &pass, nil
}

func (r *PassRepository) Update(id string, pass *models.Pass) (*models.Pass, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid pass ID")
	}

	pass.UpdatedAt = time.Now()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": pass},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Pass
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("pass not found")
		}
		return nil, err
	}

	return &updated, nil
}

func (r *PassRepository) SetActive(id string, active bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid pass ID")
	}

	update := bson.M{
		"$set": bson.M{
			"active":     active,
			"updated_at": time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("pass not found")
	}

	return nil
}

func (r *PassRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid pass ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return errors.New("pass not found")
	}

	return nil
}

// CreateIndexes creates necessary indexes for the passes collection
func (r *PassRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "vehicle_number", Value: 1},
				{Key: "active", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "valid_until", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
