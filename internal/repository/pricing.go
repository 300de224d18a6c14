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

type PricingRepository struct {
	collection *mongo.Collection
}

func NewPricingRepository(db *mongo.Database) *PricingRepository {
	return &PricingRepository{
		collection: db.Collection("pricing_plans"),
	}
}

func (r *PricingRepository) Create(plan *models.PricingPlan) (*models.PricingPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return nil, err
	}

	plan.ID = result.InsertedID.(primitive.ObjectID)
	return plan, nil
}

func (r *PricingRepository) FindByID(id string) (*models.PricingPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid pricing plan ID")
	}

	var plan models.PricingPlan
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("pricing plan not found")
		}
		return nil, err
	}

	return &plan, nil
}

func (r *PricingRepository) FindAll() ([]*models.PricingPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []*models.PricingPlan
	for cursor.Next(ctx) {
		var plan models.PricingPlan
		if err := cursor.Decode(&plan); err != nil {
			return nil, err
		}
		plans = append(plans, &plan)
	}

	return plans, nil
}

// FindActive returns the active plan for a vehicle type, if any.
func (r *PricingRepository) FindActive(vehicleType string) (*models.PricingPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"vehicle_type": vehicleType,
		"active":       true,
	}

	var plan models.PricingPlan
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("no active pricing plan")
		}
		return nil, err
	}

	return &plan, nil
}

func (r *PricingRepository) Update(id string, plan *models.PricingPlan) (*models.PricingPlan, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid pricing plan ID")
	}

	plan.UpdatedAt = time.Now()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": plan},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.PricingPlan
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("pricing plan not found")
		}
		return nil, err
	}

	return &updated, nil
}

// SetActive activates the plan and deactivates every other plan for the same
// vehicle type.
func (r *PricingRepository) SetActive(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid pricing plan ID")
	}

	var plan models.PricingPlan
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&plan); err != nil {
		if err == mongo.ErrNoDocuments {
			return errors.New("pricing plan not found")
		}
		return err
	}

	_, err = r.collection.UpdateMany(
		ctx,
		bson.M{"vehicle_type": plan.VehicleType, "_id": bson.M{"$ne": objectID}},
		bson.M{"$set": bson.M{"active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"active": true, "updated_at": time.Now()}},
	)
	return err
}

func (r *PricingRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid pricing plan ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return errors.New("pricing plan not found")
	}

	return nil
}

// CreateIndexes creates necessary indexes for the pricing_plans collection
func (r *PricingRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "vehicle_type", Value: 1},
				{Key: "active", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
