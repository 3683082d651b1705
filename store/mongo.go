package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// DB bundles the Mongo client and the collections the service uses. It is
// constructed once in main and injected; there is no package-level client.
type DB struct {
	client *mongo.Client

	Orders          *MongoOrderStore
	Promotions      *MongoPromotionStore
	DriverLocations *MongoDriverLocationStore
	Notifications   *MongoNotificationStore
	Catalog         *MongoCatalogStore
}

func Connect(ctx context.Context, uri, database string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	return &DB{
		client:          client,
		Orders:          &MongoOrderStore{coll: db.Collection("orders")},
		Promotions:      &MongoPromotionStore{coll: db.Collection("promotions")},
		DriverLocations: &MongoDriverLocationStore{coll: db.Collection("driver_locations")},
		Notifications:   &MongoNotificationStore{coll: db.Collection("notifications")},
		Catalog: &MongoCatalogStore{
			restaurants: db.Collection("restaurants"),
			menuItems:   db.Collection("menu_items"),
			users:       db.Collection("users"),
		},
	}, nil
}

// ensureIndexes backs the duplicate checks in the stores: promo codes and
// order numbers are unique at the collection level, not just in app code.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("promotions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create promotions index: %w", err)
	}

	_, err = db.Collection("orders").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create orders index: %w", err)
	}
	return nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}
