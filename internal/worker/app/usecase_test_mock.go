package app

import (
	"context"
	"sync"

	"marketplace_chat_service/internal/chat/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

// MockMessageStore Mock MessageStore
type MockMessageStore struct {
	mock.Mock
}

// BulkInsert mock bulk insert
func (m *MockMessageStore) BulkInsert(ctx context.Context, msgs []domain.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

// MockCounterStore Mock CounterStore
type MockCounterStore struct {
	mock.Mock
}

// Increment mock counter increment
func (m *MockCounterStore) Increment(ctx context.Context, recipientKey, conversationID string, n int64) (int64, error) {
	args := m.Called(ctx, recipientKey, conversationID, n)
	return args.Get(0).(int64), args.Error(1)
}

// MockCountPublisher Mock CountPublisher
type MockCountPublisher struct {
	mock.Mock
}

// PublishCountUpdate mock count update publish
func (m *MockCountPublisher) PublishCountUpdate(ctx context.Context, update domain.CountUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// MockConversationLookup Mock ConversationLookup
type MockConversationLookup struct {
	mock.Mock
}

// FindByID mock conversation lookup
func (m *MockConversationLookup) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// scriptedBusReader replays a fixed record sequence, then reports the
// context as cancelled like a closing *kafka.Reader would
type scriptedBusReader struct {
	mu        sync.Mutex
	records   []kafka.Message
	committed []kafka.Message
}

func (r *scriptedBusReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.records[0]
	r.records = r.records[1:]
	return m, nil
}

func (r *scriptedBusReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}
