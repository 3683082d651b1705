package lifecycle

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/apperrors"
	"quickbite/api/config"
	"quickbite/api/events"
	"quickbite/api/metrics"
	"quickbite/api/models"
	"quickbite/api/notify"
	"quickbite/api/promo"
	"quickbite/api/relay"
	"quickbite/api/store"
)

// Manager owns every write to an order's status field. Side effects (relay,
// notifications, audit log) run after the storage write commits and are
// never rolled back.
type Manager struct {
	orders     store.OrderStore
	promotions store.PromotionStore
	catalog    store.CatalogStore
	locations  store.DriverLocationStore
	relay      *relay.Publisher
	outbox     *notify.Outbox
	audit      *events.AuditLog
	pricing    config.PricingConfig
}

func NewManager(
	orders store.OrderStore,
	promotions store.PromotionStore,
	catalog store.CatalogStore,
	locations store.DriverLocationStore,
	publisher *relay.Publisher,
	outbox *notify.Outbox,
	audit *events.AuditLog,
	pricing config.PricingConfig,
) *Manager {
	return &Manager{
		orders:     orders,
		promotions: promotions,
		catalog:    catalog,
		locations:  locations,
		relay:      publisher,
		outbox:     outbox,
		audit:      audit,
		pricing:    pricing,
	}
}

type ItemInput struct {
	MenuItemID primitive.ObjectID
	Quantity   int
	Note       string
}

type CreateOrderInput struct {
	CustomerID   primitive.ObjectID
	RestaurantID primitive.ObjectID
	Items        []ItemInput
	Address      models.Address
	PromoCode    string
	Note         string
}

func (m *Manager) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperrors.Validation("order must contain at least one item")
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, apperrors.Validation("item quantity must be at least 1")
		}
	}

	restaurant, err := m.catalog.Restaurant(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.IsOpen {
		return nil, apperrors.Validation("restaurant %s is closed", restaurant.Name)
	}

	lines, subtotal, err := m.snapshotItems(ctx, in)
	if err != nil {
		return nil, err
	}

	deliveryFee := restaurant.DeliveryFee
	if deliveryFee <= 0 {
		deliveryFee = m.pricing.DefaultDeliveryFee
	}
	tax := round2(subtotal * m.pricing.TaxRate)

	var discount float64
	redeemed := false
	if in.PromoCode != "" {
		discount, deliveryFee, err = m.applyPromotion(ctx, in.PromoCode, subtotal, deliveryFee)
		if err != nil {
			return nil, err
		}
		redeemed = true
	}

	now := time.Now()
	order := &models.Order{
		OrderNumber:       newOrderNumber(now),
		CustomerID:        in.CustomerID,
		RestaurantID:      in.RestaurantID,
		Items:             lines,
		Subtotal:          subtotal,
		DeliveryFee:       deliveryFee,
		Tax:               tax,
		Discount:          discount,
		Total:             round2(subtotal + deliveryFee + tax - discount),
		Status:            models.OrderStatusPending,
		DeliveryAddress:   in.Address,
		PromoCode:         strings.ToUpper(in.PromoCode),
		Note:              in.Note,
		EstimatedDelivery: now.Add(m.pricing.EstimatedDelivery),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := checkTotals(order); err != nil {
		m.releasePromotion(ctx, redeemed, in.PromoCode)
		return nil, err
	}

	if err := m.orders.Insert(ctx, order); err != nil {
		m.releasePromotion(ctx, redeemed, in.PromoCode)
		return nil, err
	}
	metrics.OrdersCreated.Inc()

	m.relay.PublishOrderEvent(ctx, order)
	m.audit.Log("order_created", map[string]interface{}{
		"order_id":     order.ID.Hex(),
		"order_number": order.OrderNumber,
		"total":        order.Total,
	})
	m.outbox.Publish(notify.Message{
		UserID: restaurant.OwnerID.Hex(),
		Type:   string(models.NotificationNewOrder),
		Title:  "New order " + order.OrderNumber,
		Body:   fmt.Sprintf("New order for %.2f", order.Total),
		Payload: map[string]interface{}{
			"order_id": order.ID.Hex(),
		},
	})

	return order, nil
}

func (m *Manager) snapshotItems(ctx context.Context, in CreateOrderInput) ([]models.OrderItem, float64, error) {
	ids := make([]primitive.ObjectID, 0, len(in.Items))
	for _, item := range in.Items {
		ids = append(ids, item.MenuItemID)
	}
	menuItems, err := m.catalog.MenuItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[primitive.ObjectID]models.MenuItem, len(menuItems))
	for _, mi := range menuItems {
		byID[mi.ID] = mi
	}

	lines := make([]models.OrderItem, 0, len(in.Items))
	var subtotal float64
	for _, item := range in.Items {
		mi, ok := byID[item.MenuItemID]
		if !ok {
			return nil, 0, apperrors.Validation("menu item %s does not exist", item.MenuItemID.Hex())
		}
		if !mi.Available {
			return nil, 0, apperrors.Validation("menu item %s is unavailable", mi.Name)
		}
		if mi.RestaurantID != in.RestaurantID {
			return nil, 0, apperrors.Validation("menu item %s belongs to a different restaurant", mi.Name)
		}
		lines = append(lines, models.OrderItem{
			MenuItemID: mi.ID,
			Name:       mi.Name,
			UnitPrice:  mi.Price,
			Quantity:   item.Quantity,
			Note:       item.Note,
		})
		subtotal += mi.Price * float64(item.Quantity)
	}
	return lines, round2(subtotal), nil
}

func (m *Manager) applyPromotion(ctx context.Context, code string, subtotal, deliveryFee float64) (discount, fee float64, err error) {
	p, err := m.promotions.GetByCode(ctx, code)
	if err != nil && !apperrors.IsKind(err, apperrors.KindNotFound) {
		return 0, 0, err
	}

	res := promo.Validate(p, subtotal, time.Now())
	if !res.Valid {
		return 0, 0, apperrors.Validation("promotion rejected: %s", res.Reason)
	}
	if err := m.promotions.Redeem(ctx, code); err != nil {
		if apperrors.IsKind(err, apperrors.KindInvalidState) {
			return 0, 0, apperrors.Validation("promotion rejected: %s", promo.ReasonExhausted)
		}
		return 0, 0, err
	}

	if p.Type == models.DiscountFreeDeliver {
		return 0, 0, nil
	}
	return res.Discount, deliveryFee, nil
}

// releasePromotion hands a redemption back when the order it was counted
// for never made it into storage.
func (m *Manager) releasePromotion(ctx context.Context, redeemed bool, code string) {
	if !redeemed {
		return
	}
	if err := m.promotions.Release(ctx, code); err != nil {
		log.Printf("Failed to release promotion %s: %v", code, err)
	}
}

// Transition applies the single legal step from the order's current status.
// picked_up and on_the_way additionally require an assigned driver, and a
// driver actor must be that driver.
func (m *Manager) Transition(ctx context.Context, orderID primitive.ObjectID, newStatus models.OrderStatus, actorID primitive.ObjectID, actorRole models.Role) (*models.Order, error) {
	if !newStatus.Valid() {
		return nil, apperrors.Validation("unknown status %q", newStatus)
	}

	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, newStatus) {
		return nil, apperrors.InvalidState("cannot go from %s to %s", order.Status, newStatus)
	}

	if newStatus == models.OrderStatusPickedUp || newStatus == models.OrderStatusOnTheWay {
		if order.DriverID == nil {
			return nil, apperrors.InvalidState("order %s has no driver assigned", order.OrderNumber)
		}
		if actorRole == models.RoleDriver && *order.DriverID != actorID {
			return nil, apperrors.Auth("order is assigned to another driver")
		}
	}

	updated, err := m.orders.UpdateStatus(ctx, orderID, order.Status, newStatus, time.Now())
	if err != nil {
		return nil, err
	}

	m.afterTransition(ctx, updated)
	return updated, nil
}

// AssignDriver resolves the acceptance race at the storage layer: the
// conditional write lets exactly one driver win; everyone else gets
// AlreadyAssigned.
func (m *Manager) AssignDriver(ctx context.Context, orderID, driverID primitive.ObjectID) (*models.Order, error) {
	updated, err := m.orders.AssignDriver(ctx, orderID, driverID, time.Now())
	if err != nil {
		return nil, err
	}

	if err := m.locations.SetAvailable(ctx, driverID, false); err != nil {
		log.Printf("Failed to mark driver %s busy: %v", driverID.Hex(), err)
	}

	metrics.StatusTransitions.WithLabelValues(string(updated.Status)).Inc()
	m.relay.PublishOrderEvent(ctx, updated)
	m.audit.Log("driver_assigned", map[string]interface{}{
		"order_id":  updated.ID.Hex(),
		"driver_id": driverID.Hex(),
	})
	m.outbox.Publish(notify.Message{
		UserID: updated.CustomerID.Hex(),
		Type:   string(models.NotificationDriverAssigned),
		Title:  "Driver on the way",
		Body:   fmt.Sprintf("A driver picked up order %s", updated.OrderNumber),
		Payload: map[string]interface{}{
			"order_id": updated.ID.Hex(),
		},
	})

	return updated, nil
}

func (m *Manager) Cancel(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, apperrors.InvalidState("order %s is already %s", order.OrderNumber, order.Status)
	}

	updated, err := m.orders.UpdateStatus(ctx, orderID, order.Status, models.OrderStatusCancelled, time.Now())
	if err != nil {
		return nil, err
	}

	m.afterTransition(ctx, updated)
	return updated, nil
}

// AdminSetStatus bypasses the transition table. It still cannot pull an
// order out of a terminal state.
func (m *Manager) AdminSetStatus(ctx context.Context, orderID primitive.ObjectID, newStatus models.OrderStatus) (*models.Order, error) {
	if !newStatus.Valid() {
		return nil, apperrors.Validation("unknown status %q", newStatus)
	}

	updated, err := m.orders.ForceStatus(ctx, orderID, newStatus, time.Now())
	if err != nil {
		return nil, err
	}

	m.afterTransition(ctx, updated)
	return updated, nil
}

func (m *Manager) afterTransition(ctx context.Context, order *models.Order) {
	metrics.StatusTransitions.WithLabelValues(string(order.Status)).Inc()
	m.relay.PublishOrderEvent(ctx, order)
	m.audit.Log("status_changed", map[string]interface{}{
		"order_id":     order.ID.Hex(),
		"order_number": order.OrderNumber,
		"status":       string(order.Status),
	})
	m.outbox.Publish(notify.Message{
		UserID: order.CustomerID.Hex(),
		Type:   string(models.NotificationOrderUpdate),
		Title:  "Order " + order.OrderNumber,
		Body:   fmt.Sprintf("Your order is now %s", order.Status),
		Payload: map[string]interface{}{
			"order_id": order.ID.Hex(),
			"status":   string(order.Status),
		},
	})

	if order.Status.Terminal() && order.DriverID != nil {
		if err := m.locations.SetAvailable(ctx, *order.DriverID, true); err != nil {
			log.Printf("Failed to free driver %s: %v", order.DriverID.Hex(), err)
		}
	}
}

// checkTotals enforces the money invariant before persistence instead of
// trusting the caller's arithmetic.
func checkTotals(o *models.Order) error {
	if o.Subtotal < 0 || o.DeliveryFee < 0 || o.Tax < 0 || o.Discount < 0 || o.Total < 0 {
		return apperrors.Validation("money fields must be non-negative")
	}
	want := round2(o.Subtotal + o.DeliveryFee + o.Tax - o.Discount)
	if math.Abs(o.Total-want) > 0.001 {
		return apperrors.Validation("total %.2f does not match %.2f", o.Total, want)
	}
	return nil
}

func newOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("QB-%s-%s", t.Format("20060102"), suffix)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
