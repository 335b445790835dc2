package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// BusReader consume side of the durable message bus, satisfied by *kafka.Reader
type BusReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Consumer feed bus records into the batch writer.
//
// The read position is committed after the record is handed to the
// in-memory buffer, not after the flush; a crash between commit and
// flush can replay a batch, so the storage write tolerates duplicates.
type Consumer struct {
	reader BusReader
	writer *BatchWriter
}

// NewConsumer create a Consumer
func NewConsumer(reader BusReader, writer *BatchWriter) *Consumer {
	return &Consumer{reader: reader, writer: writer}
}

// Start run the consume loop until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) {
	logger.Log.Info("persistence consumer started")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				logger.Log.Info("persistence consumer stopped")
				return
			}
			logger.Log.Errorf("bus fetch failed:", err)
			continue
		}

		var event domain.MessageEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			// connection probes and malformed records are skipped but
			// still committed, so they are not replayed forever
			logger.Log.Warn("undecodable bus record skipped")
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				logger.Log.Errorf("bus commit failed:", err)
			}
			continue
		}

		c.writer.Add(event.ToMessage())

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			logger.Log.Errorf("bus commit failed:", err)
		}
	}
}
