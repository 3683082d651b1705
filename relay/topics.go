package relay

import "fmt"

// Channel names are deterministic so any instance publishes to the same
// topic for the same entity.

func OrderTrackingTopic(orderNumber string) string {
	return fmt.Sprintf("orders.%s.tracking", orderNumber)
}

func UserTopic(role, userID string) string {
	return fmt.Sprintf("users.%s.%s", role, userID)
}

func RestaurantInboxTopic(restaurantID string) string {
	return fmt.Sprintf("restaurants.%s.inbox", restaurantID)
}
