package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationNewOrder       NotificationType = "new_order"
	NotificationOrderUpdate    NotificationType = "order_update"
	NotificationDriverAssigned NotificationType = "driver_assigned"
	NotificationPromotion      NotificationType = "promotion"
	NotificationSystem         NotificationType = "system"
)

type Notification struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID     `bson:"user_id" json:"user_id"`
	Type      NotificationType       `bson:"type" json:"type"`
	Title     string                 `bson:"title" json:"title"`
	Body      string                 `bson:"body" json:"body"`
	Payload   map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`
	Read      bool                   `bson:"read" json:"read"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}
