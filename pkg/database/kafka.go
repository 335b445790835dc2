package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriterWithRetry create a Kafka writer and send a probe message to confirm the connection.
// The Hash balancer keeps every message with the same key on the same partition.
func NewKafkaWriterWithRetry(k KafkaConnection) (*kafka.Writer, error) {
	var writer *kafka.Writer
	var err error

	for attempt := 1; attempt <= k.RetryCount; attempt++ {
		writer = kafka.NewWriter(kafka.WriterConfig{
			Brokers:  k.Brokers,
			Topic:    k.Topic,
			Balancer: &kafka.Hash{},
		})

		err = writer.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte("ping"),
			Value: []byte("ping"),
		})
		if err == nil {
			log.Printf("Kafka writer ready (attempt %d)", attempt)
			return writer, nil
		}

		log.Printf("Kafka writer connect failed (attempt %d/%d): %v", attempt, k.RetryCount, err)
		writer.Close()
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("unable to create Kafka writer after %d attempts: %v", k.RetryCount, err)
}

// NewKafkaReader create a Kafka consumer-group reader.
// Offsets are committed explicitly by the caller, not on read.
func NewKafkaReader(k KafkaConnection) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.Brokers,
		Topic:    k.Topic,
		GroupID:  k.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}
