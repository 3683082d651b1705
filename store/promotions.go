package store

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"quickbite/api/apperrors"
	"quickbite/api/models"
)

type MongoPromotionStore struct {
	coll *mongo.Collection
}

func (s *MongoPromotionStore) Insert(ctx context.Context, p *models.Promotion) error {
	p.Code = strings.ToUpper(p.Code)
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Validation("promotion code %s already exists", p.Code)
		}
		return apperrors.Upstream("failed to insert promotion", err)
	}
	return nil
}

func (s *MongoPromotionStore) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var p models.Promotion
	err := s.coll.FindOne(ctx, bson.M{"code": strings.ToUpper(code)}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("promotion %s not found", code)
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to load promotion", err)
	}
	return &p, nil
}

// Redeem performs the increment-and-check as one conditional update so two
// concurrent checkouts cannot both slip under the usage limit. A usage
// limit of zero or less means unlimited.
func (s *MongoPromotionStore) Redeem(ctx context.Context, code string) error {
	filter := bson.M{
		"code": strings.ToUpper(code),
		"$or": bson.A{
			bson.M{"usage_limit": bson.M{"$lte": 0}},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}}},
		},
	}
	update := bson.M{"$inc": bson.M{"used_count": 1}}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperrors.Upstream("failed to redeem promotion", err)
	}
	if res.ModifiedCount == 0 {
		return apperrors.InvalidState("promotion %s is exhausted", code)
	}
	return nil
}

// Release hands back one redemption after the order it was counted for
// failed to persist. Guarded so the counter never goes negative.
func (s *MongoPromotionStore) Release(ctx context.Context, code string) error {
	filter := bson.M{
		"code":       strings.ToUpper(code),
		"used_count": bson.M{"$gt": 0},
	}
	update := bson.M{"$inc": bson.M{"used_count": -1}}

	if _, err := s.coll.UpdateOne(ctx, filter, update); err != nil {
		return apperrors.Upstream("failed to release promotion", err)
	}
	return nil
}
