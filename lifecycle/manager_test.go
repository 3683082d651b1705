package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/apperrors"
	"quickbite/api/config"
	"quickbite/api/models"
)

type fixture struct {
	manager    *Manager
	orders     *fakeOrderStore
	promotions *fakePromotionStore
	catalog    *fakeCatalogStore
	locations  *fakeLocationStore

	restaurantID primitive.ObjectID
	customerID   primitive.ObjectID
	burgerID     primitive.ObjectID
	friesID      primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:       newFakeOrderStore(),
		promotions:   newFakePromotionStore(),
		catalog:      newFakeCatalogStore(),
		locations:    newFakeLocationStore(),
		restaurantID: primitive.NewObjectID(),
		customerID:   primitive.NewObjectID(),
		burgerID:     primitive.NewObjectID(),
		friesID:      primitive.NewObjectID(),
	}

	f.catalog.restaurants[f.restaurantID] = &models.Restaurant{
		ID:          f.restaurantID,
		Name:        "Burger Barn",
		DeliveryFee: 3.99,
		IsOpen:      true,
		OwnerID:     primitive.NewObjectID(),
	}
	f.catalog.menuItems[f.burgerID] = &models.MenuItem{
		ID:           f.burgerID,
		RestaurantID: f.restaurantID,
		Name:         "Double Burger",
		Price:        12.99,
		Available:    true,
	}
	f.catalog.menuItems[f.friesID] = &models.MenuItem{
		ID:           f.friesID,
		RestaurantID: f.restaurantID,
		Name:         "Loaded Fries",
		Price:        8.99,
		Available:    true,
	}

	pricing := config.PricingConfig{
		TaxRate:            0.08,
		DefaultDeliveryFee: 3.99,
		EstimatedDelivery:  30 * time.Minute,
	}
	f.manager = NewManager(f.orders, f.promotions, f.catalog, f.locations, nil, nil, nil, pricing)
	return f
}

func (f *fixture) createOrder(t *testing.T, promoCode string) *models.Order {
	t.Helper()
	order, err := f.manager.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:   f.customerID,
		RestaurantID: f.restaurantID,
		Items: []ItemInput{
			{MenuItemID: f.burgerID, Quantity: 1},
			{MenuItemID: f.friesID, Quantity: 2},
		},
		Address:   models.Address{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		PromoCode: promoCode,
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrderTotals(t *testing.T) {
	f := newFixture(t)

	order := f.createOrder(t, "")

	// 12.99 + 2*8.99 = 30.97; tax at 8% = 2.48; fee 3.99.
	assert.Equal(t, 30.97, order.Subtotal)
	assert.Equal(t, 3.99, order.DeliveryFee)
	assert.Equal(t, 2.48, order.Tax)
	assert.Zero(t, order.Discount)
	assert.Equal(t, 37.44, order.Total)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.OrderNumber)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), order.EstimatedDelivery, time.Minute)
}

func TestCreateOrderSnapshotsSurviveMenuEdits(t *testing.T) {
	f := newFixture(t)

	order := f.createOrder(t, "")
	f.catalog.menuItems[f.burgerID].Price = 99.99
	f.catalog.menuItems[f.burgerID].Name = "Renamed"

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Double Burger", stored.Items[0].Name)
	assert.Equal(t, 12.99, stored.Items[0].UnitPrice)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:   f.customerID,
		RestaurantID: f.restaurantID,
	})

	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCreateOrderRejectsUnavailableItem(t *testing.T) {
	f := newFixture(t)
	f.catalog.menuItems[f.burgerID].Available = false

	_, err := f.manager.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:   f.customerID,
		RestaurantID: f.restaurantID,
		Items:        []ItemInput{{MenuItemID: f.burgerID, Quantity: 1}},
	})

	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCreateOrderRejectsUnknownItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:   f.customerID,
		RestaurantID: f.restaurantID,
		Items:        []ItemInput{{MenuItemID: primitive.NewObjectID(), Quantity: 1}},
	})

	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCreateOrderAppliesFixedPromotion(t *testing.T) {
	f := newFixture(t)
	f.promotions.Insert(context.Background(), &models.Promotion{
		Code:       "TAKE5",
		Type:       models.DiscountFixed,
		Value:      5,
		StartDate:  time.Now().Add(-time.Hour),
		EndDate:    time.Now().Add(time.Hour),
		IsActive:   true,
		UsageLimit: 10,
	})

	order := f.createOrder(t, "TAKE5")

	assert.Equal(t, 5.0, order.Discount)
	assert.Equal(t, 32.44, order.Total)

	p, _ := f.promotions.GetByCode(context.Background(), "TAKE5")
	assert.Equal(t, 1, p.UsedCount)
}

func TestCreateOrderFreeDeliveryWaivesFee(t *testing.T) {
	f := newFixture(t)
	f.promotions.Insert(context.Background(), &models.Promotion{
		Code:       "FREESHIP",
		Type:       models.DiscountFreeDeliver,
		StartDate:  time.Now().Add(-time.Hour),
		EndDate:    time.Now().Add(time.Hour),
		IsActive:   true,
		UsageLimit: 10,
	})

	order := f.createOrder(t, "FREESHIP")

	assert.Zero(t, order.DeliveryFee)
	assert.Zero(t, order.Discount)
	assert.Equal(t, 33.45, order.Total) // 30.97 + 2.48
}

func TestCreateOrderRejectsPromotionBelowMinimum(t *testing.T) {
	f := newFixture(t)
	f.promotions.Insert(context.Background(), &models.Promotion{
		Code:           "FIRST10",
		Type:           models.DiscountFixed,
		Value:          10,
		MinOrderAmount: 50,
		StartDate:      time.Now().Add(-time.Hour),
		EndDate:        time.Now().Add(time.Hour),
		IsActive:       true,
		UsageLimit:     10,
	})

	_, err := f.manager.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:   f.customerID,
		RestaurantID: f.restaurantID,
		Items:        []ItemInput{{MenuItemID: f.burgerID, Quantity: 1}},
		PromoCode:    "FIRST10",
	})

	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCreateOrderUncappedPromotion(t *testing.T) {
	f := newFixture(t)
	f.promotions.Insert(context.Background(), &models.Promotion{
		Code:      "WELCOME5",
		Type:      models.DiscountFixed,
		Value:     5,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
		IsActive:  true,
		// UsageLimit zero means no cap.
	})

	first := f.createOrder(t, "WELCOME5")
	assert.Equal(t, 5.0, first.Discount)

	second := f.createOrder(t, "WELCOME5")
	assert.Equal(t, 5.0, second.Discount)

	p, _ := f.promotions.GetByCode(context.Background(), "WELCOME5")
	assert.Equal(t, 2, p.UsedCount)
}

func TestCreateOrderFallsBackToDefaultDeliveryFee(t *testing.T) {
	f := newFixture(t)
	f.catalog.restaurants[f.restaurantID].DeliveryFee = 0

	order := f.createOrder(t, "")

	assert.Equal(t, 3.99, order.DeliveryFee)
	assert.Equal(t, 37.44, order.Total)
}

func TestCreateOrderReleasesPromotionWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	f.promotions.Insert(context.Background(), &models.Promotion{
		Code:       "TAKE5",
		Type:       models.DiscountFixed,
		Value:      5,
		StartDate:  time.Now().Add(-time.Hour),
		EndDate:    time.Now().Add(time.Hour),
		IsActive:   true,
		UsageLimit: 1,
	})

	pricing := config.PricingConfig{TaxRate: 0.08, DefaultDeliveryFee: 3.99, EstimatedDelivery: 30 * time.Minute}
	broken := NewManager(&failingOrderStore{f.orders}, f.promotions, f.catalog, f.locations, nil, nil, nil, pricing)

	_, err := broken.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:   f.customerID,
		RestaurantID: f.restaurantID,
		Items:        []ItemInput{{MenuItemID: f.burgerID, Quantity: 1}},
		Address:      models.Address{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		PromoCode:    "TAKE5",
	})
	require.Error(t, err)

	// The failed order must not consume the redemption.
	p, _ := f.promotions.GetByCode(context.Background(), "TAKE5")
	assert.Zero(t, p.UsedCount)

	order := f.createOrder(t, "TAKE5")
	assert.Equal(t, 5.0, order.Discount)
}

func TestFullTransitionSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "")
	admin := primitive.NewObjectID()

	for _, next := range []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
	} {
		updated, err := f.manager.Transition(ctx, order.ID, next, admin, models.RoleRestaurant)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	driver := primitive.NewObjectID()
	updated, err := f.manager.AssignDriver(ctx, order.ID, driver)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPickedUp, updated.Status)
	require.NotNil(t, updated.DriverID)
	assert.Equal(t, driver, *updated.DriverID)

	for _, next := range []models.OrderStatus{
		models.OrderStatusOnTheWay,
		models.OrderStatusDelivered,
	} {
		updated, err = f.manager.Transition(ctx, order.ID, next, driver, models.RoleDriver)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}
}

func TestTransitionRejectsSkippedStep(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "")

	_, err := f.manager.Transition(context.Background(), order.ID, models.OrderStatusOnTheWay,
		primitive.NewObjectID(), models.RoleRestaurant)

	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestTransitionRequiresDriverForPickup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "")
	actor := primitive.NewObjectID()

	for _, next := range []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
	} {
		_, err := f.manager.Transition(ctx, order.ID, next, actor, models.RoleRestaurant)
		require.NoError(t, err)
	}

	_, err := f.manager.Transition(ctx, order.ID, models.OrderStatusPickedUp, actor, models.RoleRestaurant)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestTerminalOrdersRejectFurtherTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "")

	_, err := f.manager.Cancel(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.manager.Transition(ctx, order.ID, models.OrderStatusConfirmed,
		primitive.NewObjectID(), models.RoleRestaurant)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	_, err = f.manager.Cancel(ctx, order.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestAssignDriverExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "")
	actor := primitive.NewObjectID()

	for _, next := range []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
	} {
		_, err := f.manager.Transition(ctx, order.ID, next, actor, models.RoleRestaurant)
		require.NoError(t, err)
	}

	winner := primitive.NewObjectID()
	loser := primitive.NewObjectID()

	_, err := f.manager.AssignDriver(ctx, order.ID, winner)
	require.NoError(t, err)

	_, err = f.manager.AssignDriver(ctx, order.ID, loser)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAlreadyAssigned))

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DriverID)
	assert.Equal(t, winner, *stored.DriverID)
}

func TestAssignDriverRequiresReadyOrder(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t, "")

	_, err := f.manager.AssignDriver(context.Background(), order.ID, primitive.NewObjectID())

	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestAdminOverrideSkipsTableButNotTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t, "")

	updated, err := f.manager.AdminSetStatus(ctx, order.ID, models.OrderStatusReady)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReady, updated.Status)

	_, err = f.manager.AdminSetStatus(ctx, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)

	_, err = f.manager.AdminSetStatus(ctx, order.ID, models.OrderStatusPending)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestCheckTotalsRejectsBadArithmetic(t *testing.T) {
	order := &models.Order{Subtotal: 10, DeliveryFee: 2, Tax: 1, Discount: 0, Total: 14}
	err := checkTotals(order)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	order.Total = 13
	assert.NoError(t, checkTotals(order))
}
