// Package relay publishes order and driver events to Redis pub/sub
// channels. Delivery is at-most-once and best-effort: a failed publish is
// logged and dropped, never bubbled into the request that triggered it.
// Clients that miss an event recover by fetching the stored order.
package relay

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"quickbite/api/metrics"
	"quickbite/api/models"
)

type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

type OrderEvent struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Status      models.OrderStatus `json:"status"`
	Timestamp   int64              `json:"timestamp"`
}

type LocationEvent struct {
	DriverID  string   `json:"driver_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Heading   *float64 `json:"heading,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// PublishOrderEvent fans a status change out to the order's tracking
// channel and the personal channels of every involved party.
func (p *Publisher) PublishOrderEvent(ctx context.Context, order *models.Order) {
	if p == nil {
		return
	}
	event := OrderEvent{
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Timestamp:   time.Now().Unix(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal order event: %v", err)
		return
	}

	topics := []string{
		OrderTrackingTopic(order.OrderNumber),
		UserTopic(string(models.RoleCustomer), order.CustomerID.Hex()),
		RestaurantInboxTopic(order.RestaurantID.Hex()),
	}
	if order.DriverID != nil {
		topics = append(topics, UserTopic(string(models.RoleDriver), order.DriverID.Hex()))
	}

	for _, topic := range topics {
		p.publish(ctx, topic, data)
	}
}

// PublishDriverLocation sends a position only to the order's tracking
// channel. Locations are never broadcast on user or restaurant channels.
func (p *Publisher) PublishDriverLocation(ctx context.Context, orderNumber string, loc *models.DriverLocation) {
	if p == nil {
		return
	}
	event := LocationEvent{
		DriverID:  loc.DriverID.Hex(),
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Heading:   loc.Heading,
		Speed:     loc.Speed,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal location event: %v", err)
		return
	}
	p.publish(ctx, OrderTrackingTopic(orderNumber), data)
}

func (p *Publisher) publish(ctx context.Context, topic string, data []byte) {
	if err := p.rdb.Publish(ctx, topic, data).Err(); err != nil {
		metrics.RelayPublishFailures.Inc()
		log.Printf("Failed to publish to %s: %v", topic, err)
	}
}

// Subscribe returns a Redis subscription for a topic. The caller owns the
// subscription and must close it.
func (p *Publisher) Subscribe(ctx context.Context, topic string) *redis.PubSub {
	return p.rdb.Subscribe(ctx, topic)
}
