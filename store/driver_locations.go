package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickbite/api/apperrors"
	"quickbite/api/models"
)

type MongoDriverLocationStore struct {
	coll *mongo.Collection
}

// Upsert replaces the driver's single location document. The driver id is
// the document id, so duplicates are impossible.
func (s *MongoDriverLocationStore) Upsert(ctx context.Context, loc *models.DriverLocation) error {
	filter := bson.M{"_id": loc.DriverID}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, filter, loc, opts); err != nil {
		return apperrors.Upstream("failed to upsert driver location", err)
	}
	return nil
}

func (s *MongoDriverLocationStore) Get(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	var loc models.DriverLocation
	err := s.coll.FindOne(ctx, bson.M{"_id": driverID}).Decode(&loc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("no location for driver %s", driverID.Hex())
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to load driver location", err)
	}
	return &loc, nil
}

func (s *MongoDriverLocationStore) SetAvailable(ctx context.Context, driverID primitive.ObjectID, available bool) error {
	update := bson.M{"$set": bson.M{"available": available, "updated_at": time.Now()}}
	if _, err := s.coll.UpdateByID(ctx, driverID, update); err != nil {
		return apperrors.Upstream("failed to update driver availability", err)
	}
	return nil
}
