package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/streadway/amqp"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/models"
	"quickbite/api/store"
)

// Consumer drains the notification queue, persists each message and hands
// it to the mailer when one is configured.
type Consumer struct {
	notifications store.NotificationStore
	catalog       store.CatalogStore
	mailer        *Mailer
	queue         string
}

func NewConsumer(notifications store.NotificationStore, catalog store.CatalogStore, mailer *Mailer, queue string) *Consumer {
	return &Consumer{
		notifications: notifications,
		catalog:       catalog,
		mailer:        mailer,
		queue:         queue,
	}
}

func (c *Consumer) Run(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, msg.Body)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Printf("Failed to parse notification: %v", err)
		return
	}

	userID, err := primitive.ObjectIDFromHex(msg.UserID)
	if err != nil {
		log.Printf("Notification has bad user id %q: %v", msg.UserID, err)
		return
	}

	n := &models.Notification{
		UserID:    userID,
		Type:      models.NotificationType(msg.Type),
		Title:     msg.Title,
		Body:      msg.Body,
		Payload:   msg.Payload,
		CreatedAt: time.Now(),
	}
	if err := c.notifications.Insert(ctx, n); err != nil {
		log.Printf("Failed to store notification for user %s: %v", msg.UserID, err)
		return
	}

	if c.mailer == nil {
		return
	}
	user, err := c.catalog.User(ctx, userID)
	if err != nil || user.Email == "" {
		return
	}
	if err := c.mailer.Send(ctx, user.Email, msg.Title, msg.Body); err != nil {
		log.Printf("Failed to email notification to %s: %v", user.Email, err)
	}
}
