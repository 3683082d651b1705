// Package events appends lifecycle events to a Kafka topic for auditing
// and offline analytics.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Shopify/sarama"
)

type AuditLog struct {
	producer sarama.SyncProducer
	topic    string
}

func NewAuditLog(brokers []string, topic string) (*AuditLog, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &AuditLog{producer: producer, topic: topic}, nil
}

// Log appends an event. Best-effort: failures are logged and swallowed so
// an unavailable broker never fails the request that produced the event.
func (a *AuditLog) Log(event string, fields map[string]interface{}) {
	if a == nil {
		return
	}
	fields["event"] = event
	fields["timestamp"] = time.Now().Unix()

	data, err := json.Marshal(fields)
	if err != nil {
		log.Printf("Failed to marshal audit event %s: %v", event, err)
		return
	}

	_, _, err = a.producer.SendMessage(&sarama.ProducerMessage{
		Topic: a.topic,
		Value: sarama.StringEncoder(data),
	})
	if err != nil {
		log.Printf("Failed to log audit event %s: %v", event, err)
	}
}

func (a *AuditLog) Close() error {
	return a.producer.Close()
}
