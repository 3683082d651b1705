package tracker

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	sweepInterval  = time.Minute
	silentInterval = 5 * time.Minute
)

// Sweep flags drivers that stopped pinging as unavailable. It only flips
// the availability flag; the last known coordinate stays put, and clients
// apply their own staleness window from updated_at.
func (t *Tracker) Sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweepOnce(ctx)
		}
	}
}

func (t *Tracker) sweepOnce(ctx context.Context) {
	keys, err := t.rdb.Keys(ctx, driverKeyPrefix+"*").Result()
	if err != nil {
		log.Printf("Failed to scan driver keys: %v", err)
		return
	}

	for _, key := range keys {
		data, err := t.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			continue
		}
		if data["available"] != "true" {
			continue
		}

		lastUpdate, _ := strconv.ParseInt(data["last_update"], 10, 64)
		if time.Now().Unix()-lastUpdate <= int64(silentInterval.Seconds()) {
			continue
		}

		hex := strings.TrimPrefix(key, driverKeyPrefix)
		if err := t.rdb.HSet(ctx, key, "available", "false").Err(); err != nil {
			log.Printf("Failed to flag driver %s unavailable: %v", hex, err)
			continue
		}
		driverID, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			continue
		}
		if err := t.locations.SetAvailable(ctx, driverID, false); err != nil {
			log.Printf("Failed to persist availability for driver %s: %v", hex, err)
		}
	}
}
