// Package events carries BookingChanged notifications to other processes:
// Kafka for durable consumers and Redis pub/sub for live availability views.
package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
)

// KafkaPublisher writes one record per booking transition, keyed by
// equipment id so each item's events stay ordered within a partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic, clientID string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Version = sarama.V2_8_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newKafkaPublisher(producer, topic), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishBookingChanged(_ context.Context, event domain.BookingChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.EquipmentID.String()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte("booking_changed")},
		},
	}

	logger.ExternalServiceCall("kafka", "SendMessage", "topic", p.topic, "bookingID", event.BookingID)
	partition, offset, err := p.producer.SendMessage(msg)
	logger.ExternalServiceResult("kafka", "SendMessage", err, "partition", partition, "offset", offset)
	return err
}

func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
