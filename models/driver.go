package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DriverLocation is the live position of one driver. The document id is the
// driver id, so there is always at most one record per driver; updates
// overwrite, they never append. This is current state, not a track log.
type DriverLocation struct {
	DriverID       primitive.ObjectID  `bson:"_id" json:"driver_id"`
	Latitude       float64             `bson:"latitude" json:"latitude"`
	Longitude      float64             `bson:"longitude" json:"longitude"`
	Heading        *float64            `bson:"heading,omitempty" json:"heading,omitempty"`
	Speed          *float64            `bson:"speed,omitempty" json:"speed,omitempty"`
	Available      bool                `bson:"available" json:"available"`
	CurrentOrderID *primitive.ObjectID `bson:"current_order_id,omitempty" json:"current_order_id,omitempty"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}
