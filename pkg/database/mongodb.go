package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// Connect establishes a connection to MongoDB

func Connect(mongoURI string) (*mongo.Database, error) {
	// Parse the URI to extract database name
	cs, err := connstring.ParseAndValidate(mongoURI)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB URI: %v", err)
	}

	// Set client options
	clientOptions := options.Client().ApplyURI(mongoURI)

	// Set connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Ping the database to verify connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	log.Println("Successfully connected to MongoDB")

	// Use database name from URI or default to "parkhub"
	dbName := cs.Database
	if dbName == "" {
		dbName = "parkhub"
	}

	db := client.Database(dbName)

	// Initialize indexes
	if err := createIndexes(db); err != nil {
		log.Printf("Warning: Failed to create indexes: %v", err)
	}

	return db, nil
}

// createIndexes creates necessary indexes for the core collections
func createIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Sessions collection indexes
	sessionsCollection := db.Collection("sessions")
	sessionIndexes := []mongo.IndexModel{
		{
			Keys: map[string]interface{}{"vehicle_number": 1},
		},
		{
			Keys: map[string]interface{}{"status": 1},
		},
		{
			Keys: map[string]interface{}{"entry_time": -1},
		},
		{
			Keys: map[string]interface{}{
				"vehicle_number": 1,
				"status":         1,
			},
		},
		{
			Keys: map[string]interface{}{"exit_time": -1},
		},
	}

	if _, err := sessionsCollection.Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		log.Printf("Failed to create session indexes: %v", err)
	}

	// Notifications collection indexes
	notificationsCollection := db.Collection("notifications")
	notificationIndexes := []mongo.IndexModel{
		{
			Keys: map[string]interface{}{"type": 1},
		},
		{
			Keys: map[string]interface{}{"session_id": 1},
		},
		{
			Keys: map[string]interface{}{"resolved": 1},
		},
		{
			Keys: map[string]interface{}{"created_at": -1},
		},
		{
			Keys: map[string]interface{}{
				"type":     1,
				"resolved": 1,
			},
		},
		{
			Keys: map[string]interface{}{
				"session_id": 1,
				"type":       1,
			},
		},
	}

	if _, err := notificationsCollection.Indexes().CreateMany(ctx, notificationIndexes); err != nil {
		log.Printf("Failed to create notification indexes: %v", err)
	}

	// Pricing plans collection indexes
	plansCollection := db.Collection("pricing_plans")
	planIndexes := []mongo.IndexModel{
		{
			Keys: map[string]interface{}{"vehicle_type": 1},
		},
		{
			Keys: map[string]interface{}{
				"vehicle_type": 1,
				"active":       1,
			},
		},
		{
			Keys: map[string]interface{}{"created_at": -1},
		},
	}

	if _, err := plansCollection.Indexes().CreateMany(ctx, planIndexes); err != nil {
		log.Printf("Failed to create pricing plan indexes: %v", err)
	}

	log.Println("Database indexes created successfully")
	return nil
}

// Disconnect closes the MongoDB connection
func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %v", err)
	}

	log.Println("Disconnected from MongoDB")
	return nil
}

// Health checks the database connection health
func Health(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return db.Client().Ping(ctx, nil)
}
