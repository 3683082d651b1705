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

const defaultListLimit = 50

type MongoOrderStore struct {
	coll *mongo.Collection
}

func (s *MongoOrderStore) Insert(ctx context.Context, order *models.Order) error {
	res, err := s.coll.InsertOne(ctx, order)
	if err != nil {
		return apperrors.Upstream("failed to insert order", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (s *MongoOrderStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("order %s not found", id.Hex())
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to load order", err)
	}
	return &order, nil
}

func (s *MongoOrderStore) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := s.coll.FindOne(ctx, bson.M{"order_number": number}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("order %s not found", number)
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to load order", err)
	}
	return &order, nil
}

func (s *MongoOrderStore) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.CustomerID != nil {
		query["customer_id"] = *filter.CustomerID
	}
	if filter.RestaurantID != nil {
		query["restaurant_id"] = *filter.RestaurantID
	}
	if filter.DriverID != nil {
		query["driver_id"] = *filter.DriverID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, apperrors.Upstream("failed to list orders", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, apperrors.Upstream("failed to decode orders", err)
	}
	return orders, nil
}

// UpdateStatus is the compare-and-swap that keeps concurrent transitions
// honest: the write matches on both id and the expected current status, so a
// racing writer that got there first makes this update match nothing.
func (s *MongoOrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, at time.Time) (*models.Order, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.explainMiss(ctx, id, from)
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to update order status", err)
	}
	return &order, nil
}

func (s *MongoOrderStore) AssignDriver(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) (*models.Order, error) {
	filter := bson.M{
		"_id":       id,
		"status":    models.OrderStatusReady,
		"driver_id": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"driver_id":  driverID,
		"status":     models.OrderStatusPickedUp,
		"updated_at": at,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if current.DriverID != nil {
			return nil, apperrors.AlreadyAssigned("order %s already has a driver", id.Hex())
		}
		return nil, apperrors.InvalidState("order %s is %s, not ready for pickup", id.Hex(), current.Status)
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to assign driver", err)
	}
	return &order, nil
}

func (s *MongoOrderStore) ForceStatus(ctx context.Context, id primitive.ObjectID, to models.OrderStatus, at time.Time) (*models.Order, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$nin": bson.A{models.OrderStatusDelivered, models.OrderStatusCancelled}},
	}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.InvalidState("order %s is %s and cannot change", id.Hex(), current.Status)
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to force order status", err)
	}
	return &order, nil
}

func (s *MongoOrderStore) ActiveOrderForDriver(ctx context.Context, driverID primitive.ObjectID) (*models.Order, error) {
	filter := bson.M{
		"driver_id": driverID,
		"status": bson.M{"$in": bson.A{
			models.OrderStatusPickedUp,
			models.OrderStatusOnTheWay,
		}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	var order models.Order
	err := s.coll.FindOne(ctx, filter, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("no active order for driver %s", driverID.Hex())
	}
	if err != nil {
		return nil, apperrors.Upstream("failed to find active order", err)
	}
	return &order, nil
}

func (s *MongoOrderStore) explainMiss(ctx context.Context, id primitive.ObjectID, expected models.OrderStatus) error {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.InvalidState("order %s is %s, expected %s", id.Hex(), current.Status, expected)
}
