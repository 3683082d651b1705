// Package notify implements the outbox step for user notifications: the
// order transition commits first, then a message is published to a durable
// RabbitMQ queue. A consumer persists the notification and optionally sends
// an email. Publish failures are logged and never rolled back into the
// transition that caused them.
package notify

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

type Message struct {
	UserID  string                 `json:"user_id"`
	Type    string                 `json:"type"`
	Title   string                 `json:"title"`
	Body    string                 `json:"body"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type Outbox struct {
	ch    *amqp.Channel
	queue string
}

func NewOutbox(conn *amqp.Connection, queue string) (*Outbox, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &Outbox{ch: ch, queue: queue}, nil
}

// Publish is fire-and-forget. The caller's transition has already
// committed; all we can do on failure is log.
func (o *Outbox) Publish(msg Message) {
	if o == nil {
		return
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal notification: %v", err)
		return
	}

	err = o.ch.Publish(
		"",      // exchange
		o.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		log.Printf("Failed to publish notification for user %s: %v", msg.UserID, err)
	}
}

func (o *Outbox) Close() error {
	return o.ch.Close()
}
