package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickbite/api/apperrors"
	"quickbite/api/models"
)

type MongoNotificationStore struct {
	coll *mongo.Collection
}

func (s *MongoNotificationStore) Insert(ctx context.Context, n *models.Notification) error {
	res, err := s.coll.InsertOne(ctx, n)
	if err != nil {
		return apperrors.Upstream("failed to insert notification", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = id
	}
	return nil
}

func (s *MongoNotificationStore) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, apperrors.Upstream("failed to list notifications", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, apperrors.Upstream("failed to decode notifications", err)
	}
	return notifications, nil
}

func (s *MongoNotificationStore) MarkRead(ctx context.Context, id, userID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "user_id": userID}
	update := bson.M{"$set": bson.M{"read": true}}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperrors.Upstream("failed to mark notification read", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("notification %s not found", id.Hex())
	}
	return nil
}
