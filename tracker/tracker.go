// Package tracker maintains the live position of each driver: one document
// per driver in Mongo (the system of record) plus a Redis hash mirror used
// for cheap nearest-driver scans and the availability sweeper.
package tracker

import (
	"context"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/apperrors"
	"quickbite/api/metrics"
	"quickbite/api/models"
	"quickbite/api/relay"
	"quickbite/api/store"
)

const driverKeyPrefix = "driver:"

type Tracker struct {
	locations store.DriverLocationStore
	orders    store.OrderStore
	rdb       *redis.Client
	relay     *relay.Publisher
}

func New(locations store.DriverLocationStore, orders store.OrderStore, rdb *redis.Client, publisher *relay.Publisher) *Tracker {
	return &Tracker{
		locations: locations,
		orders:    orders,
		rdb:       rdb,
		relay:     publisher,
	}
}

type Update struct {
	DriverID  primitive.ObjectID
	Latitude  float64
	Longitude float64
	Heading   *float64
	Speed     *float64
}

// Record overwrites the driver's location and, when the driver is on an
// active delivery, relays the position on that order's tracking channel.
// Last write wins; only the freshest position matters.
func (t *Tracker) Record(ctx context.Context, up Update) (*models.DriverLocation, error) {
	loc := &models.DriverLocation{
		DriverID:  up.DriverID,
		Latitude:  up.Latitude,
		Longitude: up.Longitude,
		Heading:   up.Heading,
		Speed:     up.Speed,
		Available: true,
		UpdatedAt: time.Now(),
	}

	order, err := t.orders.ActiveOrderForDriver(ctx, up.DriverID)
	switch {
	case err == nil:
		loc.Available = false
		loc.CurrentOrderID = &order.ID
	case !apperrors.IsKind(err, apperrors.KindNotFound):
		return nil, err
	}

	if err := t.locations.Upsert(ctx, loc); err != nil {
		return nil, err
	}
	metrics.LocationUpdates.Inc()
	t.mirror(ctx, loc)

	if order != nil {
		t.relay.PublishDriverLocation(ctx, order.OrderNumber, loc)
	}
	return loc, nil
}

func (t *Tracker) Get(ctx context.Context, driverID primitive.ObjectID) (*models.DriverLocation, error) {
	return t.locations.Get(ctx, driverID)
}

func (t *Tracker) mirror(ctx context.Context, loc *models.DriverLocation) {
	if t.rdb == nil {
		return
	}
	err := t.rdb.HSet(ctx, driverKeyPrefix+loc.DriverID.Hex(), map[string]interface{}{
		"latitude":    loc.Latitude,
		"longitude":   loc.Longitude,
		"available":   strconv.FormatBool(loc.Available),
		"last_update": loc.UpdatedAt.Unix(),
	}).Err()
	if err != nil {
		log.Printf("Failed to mirror driver %s location: %v", loc.DriverID.Hex(), err)
	}
}

// Nearest scans the mirrored driver hashes and returns the closest
// available driver to the given point, or "" when none is available.
func (t *Tracker) Nearest(ctx context.Context, lat, lon float64) (string, float64) {
	keys, err := t.rdb.Keys(ctx, driverKeyPrefix+"*").Result()
	if err != nil {
		log.Printf("Failed to scan driver keys: %v", err)
		return "", 0
	}

	var nearestID string
	minDistance := math.MaxFloat64

	for _, key := range keys {
		data, err := t.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			continue
		}
		dLat, dLon, ok := parseCoordinates(data)
		if !ok {
			continue
		}

		dist := Distance(lat, lon, dLat, dLon)
		if dist < minDistance {
			minDistance = dist
			nearestID = strings.TrimPrefix(key, driverKeyPrefix)
		}
	}

	if nearestID == "" {
		return "", 0
	}
	return nearestID, minDistance
}

// parseCoordinates reads an available driver's position out of its mirror
// hash. Entries that are busy or hold corrupt coordinates are skipped
// rather than treated as position (0, 0).
func parseCoordinates(data map[string]string) (lat, lon float64, ok bool) {
	if data["available"] != "true" {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(data["latitude"], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(data["longitude"], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
