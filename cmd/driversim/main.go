// driversim emulates a driver on a delivery: it posts location pings and
// follows the order's tracking channel, printing every event it receives.
// Useful for exercising the relay path against a running server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "server base URL")
		wsURL   = flag.String("ws", "ws://localhost:8080", "server websocket URL")
		token   = flag.String("token", "", "driver bearer token")
		order   = flag.String("order", "", "order number to track")
		lat     = flag.Float64("lat", 40.7128, "starting latitude")
		lon     = flag.Float64("lon", -74.0060, "starting longitude")
	)
	flag.Parse()

	if *order != "" {
		go trackOrder(*wsURL, *order)
	}

	sendPings(*baseURL, *token, *lat, *lon)
}

func sendPings(baseURL, token string, lat, lon float64) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		lat += 0.001
		lon += 0.001

		body, _ := json.Marshal(map[string]float64{
			"latitude":  lat,
			"longitude": lon,
		})
		req, err := http.NewRequest(http.MethodPost,
			baseURL+"/api/v1/realtime/driver-location", bytes.NewBuffer(body))
		if err != nil {
			log.Fatal(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Printf("Failed to send location: %v", err)
			continue
		}
		resp.Body.Close()
		fmt.Printf("Location updated: %f, %f (status %d)\n", lat, lon, resp.StatusCode)
	}
}

func trackOrder(wsURL, orderNumber string) {
	url := fmt.Sprintf("%s/track?order=%s", wsURL, orderNumber)
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Printf("Failed to connect to tracking channel: %v", err)
		return
	}
	defer c.Close()

	for {
		var update map[string]interface{}
		if err := c.ReadJSON(&update); err != nil {
			log.Printf("Tracking read error: %v", err)
			return
		}
		fmt.Printf("Tracking update: %v\n", update)
	}
}
