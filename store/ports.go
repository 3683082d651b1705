package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/models"
)

// The service layer talks to storage through these interfaces so tests can
// substitute in-memory fakes.

type OrderFilter struct {
	CustomerID   *primitive.ObjectID
	RestaurantID *primitive.ObjectID
	DriverID     *primitive.ObjectID
	Status       models.OrderStatus
	Limit        int64
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)

	// UpdateStatus is a conditional write: it succeeds only if the order's
	// status still equals from. Returns the updated order.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, at time.Time) (*models.Order, error)

	// AssignDriver succeeds only while the order is ready and no driver is
	// set; it advances the status to picked_up in the same write.
	AssignDriver(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) (*models.Order, error)

	// ForceStatus skips the transition table but still refuses to leave a
	// terminal state. Admin override only.
	ForceStatus(ctx context.Context, id primitive.ObjectID, to models.OrderStatus, at time.Time) (*models.Order, error)

	ActiveOrderForDriver(ctx context.Context, driverID primitive.ObjectID) (*models.Order, error)
}

type PromotionStore interface {
	Insert(ctx context.Context, p *models.Promotion) error
	GetByCode(ctx context.Context, code string) (*models.Promotion, error)

	// Redeem increments used_count only while it is still below the usage
	// limit; the check and the increment are one conditional update.
	Redeem(ctx context.Context, code string) error

	// Release decrements used_count after a redeemed order failed to
	// persist.
	Release(ctx context.Context, code string) error
}

type DriverLocationStore interface {
	Upsert(ctx context.Context, loc *models.DriverLocation) error
	Get(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error)
	SetAvailable(ctx context.Context, driverID primitive.ObjectID, available bool) error
}

type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
}

type CatalogStore interface {
	Restaurant(ctx context.Context, id primitive.ObjectID) (*models.Restaurant, error)
	MenuItems(ctx context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error)
	User(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
