package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared by the Mongo stores.
const (
	CategoriesCollection = "categories"
	ItemsCollection      = "items"
	VendorsCollection    = "vendors"
	BookingsCollection   = "bookings"
	AdminsCollection     = "admins"
)

var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func mongoIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CategoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "parentId", Value: 1}}},
			{Keys: bson.D{{Key: "path", Value: 1}}},
		},
		ItemsCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "vendor", Value: 1}}},
			{Keys: bson.D{{Key: "prices.city", Value: 1}}},
		},
		VendorsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "city", Value: 1}}},
		},
		BookingsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		AdminsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range mongoIndexes() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}
