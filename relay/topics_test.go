package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "orders.QB-20250101-AB12CD.tracking", OrderTrackingTopic("QB-20250101-AB12CD"))
	assert.Equal(t, "users.driver.64f1", UserTopic("driver", "64f1"))
	assert.Equal(t, "restaurants.64f2.inbox", RestaurantInboxTopic("64f2"))
}

func TestTopicNamesAreDeterministic(t *testing.T) {
	assert.Equal(t, OrderTrackingTopic("X"), OrderTrackingTopic("X"))
}
