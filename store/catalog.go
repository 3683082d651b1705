package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"quickbite/api/apperrors"
	"quickbite/api/models"
)

type MongoCatalogStore struct {
	restaurants *mongo.Collection
	menuItems   *mongo.Collection
	users       *mongo.Collection
}

func (s *MongoCatalogStore) Restaurant(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error) {
	var r models.Restaurant
	err := s.restaurants.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("restaurant %s not found", id.Hex())
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to load restaurant", err)
	}
	return &r, nil
}

func (s *MongoCatalogStore) MenuItems(ctx context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error) {
	cursor, err := s.menuItems.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperrors.Upstream("failed to load menu items", err)
	}
	defer cursor.Close(ctx)

	var items []models.MenuItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, apperrors.Upstream("failed to decode menu items", err)
	}
	return items, nil
}

func (s *MongoCatalogStore) User(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("user %s not found", id.Hex())
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to load user", err)
	}
	return &u, nil
}
