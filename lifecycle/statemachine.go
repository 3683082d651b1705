package lifecycle

import "quickbite/api/models"

// The happy path is linear, so the machine is an allowed-successor table
// rather than a general graph. Cancellation is the single escape hatch,
// legal from any non-terminal state. Terminal states map to nothing.
var nextStatus = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusPending:   models.OrderStatusConfirmed,
	models.OrderStatusConfirmed: models.OrderStatusPreparing,
	models.OrderStatusPreparing: models.OrderStatusReady,
	models.OrderStatusReady:     models.OrderStatusPickedUp,
	models.OrderStatusPickedUp:  models.OrderStatusOnTheWay,
	models.OrderStatusOnTheWay:  models.OrderStatusDelivered,
}

// CanTransition reports whether from → to is a legal step.
func CanTransition(from, to models.OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	return nextStatus[from] == to
}

// NextStatus returns the single legal successor in the happy path, or ""
// for terminal states.
func NextStatus(from models.OrderStatus) models.OrderStatus {
	return nextStatus[from]
}
