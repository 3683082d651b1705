package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusOnTheWay  OrderStatus = "on_the_way"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem is a snapshot of a menu item at order-creation time. Name and
// unit price are copied so the line stays valid after the menu changes.
type OrderItem struct {
	MenuItemID primitive.ObjectID `bson:"menu_item_id" json:"menu_item_id"`
	Name       string             `bson:"name" json:"name"`
	UnitPrice  float64            `bson:"unit_price" json:"unit_price"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Note       string             `bson:"note,omitempty" json:"note,omitempty"`
}

type Address struct {
	Street    string   `bson:"street" json:"street"`
	City      string   `bson:"city" json:"city"`
	State     string   `bson:"state" json:"state"`
	Zip       string   `bson:"zip" json:"zip"`
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

type Order struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderNumber       string              `bson:"order_number" json:"order_number"`
	CustomerID        primitive.ObjectID  `bson:"customer_id" json:"customer_id"`
	RestaurantID      primitive.ObjectID  `bson:"restaurant_id" json:"restaurant_id"`
	DriverID          *primitive.ObjectID `bson:"driver_id,omitempty" json:"driver_id,omitempty"`
	Items             []OrderItem         `bson:"items" json:"items"`
	Subtotal          float64             `bson:"subtotal" json:"subtotal"`
	DeliveryFee       float64             `bson:"delivery_fee" json:"delivery_fee"`
	Tax               float64             `bson:"tax" json:"tax"`
	Discount          float64             `bson:"discount" json:"discount"`
	Total             float64             `bson:"total" json:"total"`
	Status            OrderStatus         `bson:"status" json:"status"`
	DeliveryAddress   Address             `bson:"delivery_address" json:"delivery_address"`
	PromoCode         string              `bson:"promo_code,omitempty" json:"promo_code,omitempty"`
	Note              string              `bson:"note,omitempty" json:"note,omitempty"`
	EstimatedDelivery time.Time           `bson:"estimated_delivery" json:"estimated_delivery"`
	CreatedAt         time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updated_at"`
}

// Terminal reports whether the status accepts no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusPickedUp, OrderStatusOnTheWay,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
