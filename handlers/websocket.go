package handlers

import (
	"context"
	"log"

	"github.com/gofiber/websocket/v2"

	"quickbite/api/metrics"
	"quickbite/api/relay"
)

// handleTrackingWebSocket streams relay events for one order. The first
// frame is the stored order itself, so a client that connects late (or
// reconnects after missing events) starts from authoritative state.
func (s *Server) handleTrackingWebSocket(c *websocket.Conn) {
	orderNumber := c.Query("order")
	if orderNumber == "" {
		c.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		c.WriteJSON(map[string]string{"error": "order not found"})
		c.Close()
		return
	}
	if err := c.WriteJSON(order); err != nil {
		c.Close()
		return
	}

	s.pump(ctx, cancel, c, relay.OrderTrackingTopic(orderNumber))
}

// handlePersonalWebSocket streams events addressed to the authenticated
// user's personal channel.
func (s *Server) handlePersonalWebSocket(c *websocket.Conn) {
	claims, err := s.parseToken(c.Query("token"))
	if err != nil {
		c.Close()
		return
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.pump(ctx, cancel, c, relay.UserTopic(role, sub))
}

func (s *Server) pump(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, topic string) {
	metrics.ActiveTrackers.Inc()
	defer metrics.ActiveTrackers.Dec()
	defer c.Close()

	sub := s.relay.Subscribe(ctx, topic)
	defer sub.Close()

	// Reader only detects the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("Failed to write to %s subscriber: %v", topic, err)
				return
			}
		}
	}
}
