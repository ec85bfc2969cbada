// Package db wires the Mongo client used by every store and declares the
// indexes those stores rely on for uniqueness and query performance.
package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect dials Mongo with a bounded startup timeout and verifies the
// connection with a ping before handing back the database handle.
func Connect(uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}
	return client, client.Database(dbName), nil
}

// EnsureIndexes creates the indexes the stores depend on. It is safe to
// call on every boot: CreateMany is a no-op for indexes that already exist
// with matching keys and options.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	users := database.Collection("users")
	if _, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return err
	}

	customers := database.Collection("customers")
	if _, err := customers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "active"}}),
		},
		{
			Keys: bson.D{{Key: "membership.membershipNumber", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "membership.isActive", Value: true}}),
		},
	}); err != nil {
		return err
	}

	sites := database.Collection("sites")
	if _, err := sites.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "siteCode", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return err
	}

	machines := database.Collection("machines")
	if _, err := machines.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "siteId", Value: 1}, {Key: "machineCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "siteId", Value: 1}, {Key: "status", Value: 1}}},
	}); err != nil {
		return err
	}

	bookings := database.Collection("bookings")
	if _, err := bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicleNumber", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys: bson.D{{Key: "otp.code", Value: 1}},
			Options: options.Index().
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "active"}}),
		},
	}); err != nil {
		return err
	}

	return nil
}
