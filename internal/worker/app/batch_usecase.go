package app

import (
	"context"
	"sync"
	"time"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// MessageStore write side of persistent message storage
type MessageStore interface {
	BulkInsert(ctx context.Context, msgs []domain.Message) error
}

// CounterStore authoritative unseen counters, incremented after a flush
type CounterStore interface {
	Increment(ctx context.Context, recipientKey, conversationID string, n int64) (int64, error)
}

// CountPublisher push side of the count-update channel toward the gateway
type CountPublisher interface {
	PublishCountUpdate(ctx context.Context, update domain.CountUpdate) error
}

// ConversationLookup resolve a conversation's participants
type ConversationLookup interface {
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
}

// BatchWriter accumulate consumed messages in a fixed time window and
// write them as one bulk insert.
//
// The window is fixed from the first arrival: later arrivals never
// reset the timer. A failed insert re-queues the whole batch ahead of
// newer arrivals and retries after the same interval, without bound;
// no message is dropped on a storage failure.
type BatchWriter struct {
	mu    sync.Mutex
	buf   []domain.Message
	timer *time.Timer

	interval time.Duration
	store    MessageStore
	counters CounterStore
	pub      CountPublisher
	convs    ConversationLookup
}

// NewBatchWriter create a BatchWriter
func NewBatchWriter(
	interval time.Duration,
	store MessageStore,
	counters CounterStore,
	pub CountPublisher,
	convs ConversationLookup,
) *BatchWriter {
	return &BatchWriter{
		interval: interval,
		store:    store,
		counters: counters,
		pub:      pub,
		convs:    convs,
	}
}

// Add append messages to the live buffer, arming the flush timer on the
// first arrival of a window
func (w *BatchWriter) Add(msgs ...domain.Message) {
	if len(msgs) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, msgs...)
	if w.timer == nil {
		w.timer = time.AfterFunc(w.interval, w.flush)
	}
}

// BufferedCount number of not-yet-flushed messages
func (w *BatchWriter) BufferedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf)
}

// Flush force a flush attempt outside the timer, used on shutdown
func (w *BatchWriter) Flush() {
	w.flush()
}

func (w *BatchWriter) flush() {
	// swap the buffer out atomically; arrivals during the insert start
	// a fresh window
	w.mu.Lock()
	batch := w.buf
	w.buf = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	ctx := context.Background()
	if err := w.store.BulkInsert(ctx, batch); err != nil {
		logger.Log.Errorf("bulk insert failed, batch re-queued:", err, zap.Int("size", len(batch)))

		// put the failed batch back in front of whatever arrived since
		w.mu.Lock()
		w.buf = append(batch, w.buf...)
		if w.timer == nil {
			w.timer = time.AfterFunc(w.interval, w.flush)
		}
		w.mu.Unlock()
		return
	}

	logger.Log.Info("batch flushed", zap.Int("size", len(batch)))
	w.bumpCounters(ctx, batch)
}

// bumpCounters increment the unseen counter of each flushed message's
// recipient and publish the new value. Counter and publish failures are
// best effort and never re-queue the batch.
func (w *BatchWriter) bumpCounters(ctx context.Context, batch []domain.Message) {
	type group struct {
		recipientKey   string
		conversationID string
		n              int64
	}

	convCache := make(map[string]*domain.Conversation)
	groups := make(map[string]*group)
	order := make([]string, 0)

	for _, msg := range batch {
		conv, ok := convCache[msg.ConversationID]
		if !ok {
			var err error
			conv, err = w.convs.FindByID(ctx, msg.ConversationID)
			if err != nil {
				logger.Log.Errorf("conversation lookup failed:", err, zap.String("conversation", msg.ConversationID))
				continue
			}
			convCache[msg.ConversationID] = conv
		}
		if conv == nil {
			logger.Log.Warn("conversation not found, counter skipped", zap.String("conversation", msg.ConversationID))
			continue
		}

		recipientKey := conv.RecipientKey(domain.ParseRole(msg.SenderType))
		key := recipientKey + "|" + msg.ConversationID
		if g, ok := groups[key]; ok {
			g.n++
		} else {
			groups[key] = &group{recipientKey: recipientKey, conversationID: msg.ConversationID, n: 1}
			order = append(order, key)
		}
	}

	for _, key := range order {
		g := groups[key]
		count, err := w.counters.Increment(ctx, g.recipientKey, g.conversationID, g.n)
		if err != nil {
			logger.Log.Errorf("unseen counter increment failed:", err, zap.String("identity", g.recipientKey))
			continue
		}
		if err := w.pub.PublishCountUpdate(ctx, domain.CountUpdate{
			RecipientKey:   g.recipientKey,
			ConversationID: g.conversationID,
			Count:          count,
		}); err != nil {
			logger.Log.Errorf("count update publish failed:", err, zap.String("identity", g.recipientKey))
		}
	}
}
