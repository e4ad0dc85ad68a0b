package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

// kafkaWriter is the subset of kafka.Writer the publisher needs
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes messages to a single Kafka topic. Messages are
// hashed by key so each bet's events land on one partition.
type KafkaPublisher struct {
	writer kafkaWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		topic: topic,
	}
}

// Publish writes one message. The subject travels as a header so consumers
// can route without decoding the payload.
func (p *KafkaPublisher) Publish(ctx context.Context, subject, key string, data []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "subject", Value: []byte(subject)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to topic %s: %w", p.topic, err)
	}

	log.WithFields(log.Fields{
		"topic":   p.topic,
		"subject": subject,
		"size":    len(data),
	}).Debug("Published message to Kafka")
	return nil
}

// Close flushes pending writes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
