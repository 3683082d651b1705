package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixed       DiscountType = "fixed"
	DiscountFreeDeliver DiscountType = "free_delivery"
)

// Promotion codes are stored upper-cased; lookups normalize the same way.
type Promotion struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Code           string              `bson:"code" json:"code"`
	Type           DiscountType        `bson:"type" json:"type"`
	Value          float64             `bson:"value" json:"value"`
	MinOrderAmount float64             `bson:"min_order_amount" json:"min_order_amount"`
	MaxDiscount    *float64            `bson:"max_discount,omitempty" json:"max_discount,omitempty"`
	StartDate      time.Time           `bson:"start_date" json:"start_date"`
	EndDate        time.Time           `bson:"end_date" json:"end_date"`
	IsActive       bool                `bson:"is_active" json:"is_active"`
	UsageLimit     int                 `bson:"usage_limit" json:"usage_limit"`
	UsedCount      int                 `bson:"used_count" json:"used_count"`
	RestaurantID   *primitive.ObjectID `bson:"restaurant_id,omitempty" json:"restaurant_id,omitempty"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
}
