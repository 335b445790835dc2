package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"marketplace_chat_service/internal/chat/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

// MockBusWriter Mock BusWriter
type MockBusWriter struct {
	mock.Mock
}

// WriteMessages mock bus publish
func (m *MockBusWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

// MockCounterRepository Mock CounterRepository
type MockCounterRepository struct {
	mock.Mock
}

// Increment mock counter increment
func (m *MockCounterRepository) Increment(ctx context.Context, recipientKey, conversationID string, n int64) (int64, error) {
	args := m.Called(ctx, recipientKey, conversationID, n)
	return args.Get(0).(int64), args.Error(1)
}

// Reset mock counter reset
func (m *MockCounterRepository) Reset(ctx context.Context, recipientKey, conversationID string) error {
	args := m.Called(ctx, recipientKey, conversationID)
	return args.Error(0)
}

// Get mock counter read
func (m *MockCounterRepository) Get(ctx context.Context, recipientKey, conversationID string) (int64, error) {
	args := m.Called(ctx, recipientKey, conversationID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// SetOnline mock presence lease write
func (m *MockPresenceRepository) SetOnline(ctx context.Context, identityKey string, ttl time.Duration) error {
	args := m.Called(ctx, identityKey, ttl)
	return args.Error(0)
}

// SetOffline mock presence lease delete
func (m *MockPresenceRepository) SetOffline(ctx context.Context, identityKey string) error {
	args := m.Called(ctx, identityKey)
	return args.Error(0)
}

// IsOnline mock presence check
func (m *MockPresenceRepository) IsOnline(ctx context.Context, identityKey string) (bool, error) {
	args := m.Called(ctx, identityKey)
	return args.Bool(0), args.Error(1)
}

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// FindOrCreatePrivate mock conversation find-or-create
func (m *MockConversationRepository) FindOrCreatePrivate(ctx context.Context, buyerID, sellerID string) (*domain.Conversation, error) {
	args := m.Called(ctx, buyerID, sellerID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID mock conversation lookup
func (m *MockConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// AutoMigrate mock migrate
func (m *MockMessageRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

// BulkInsert mock bulk insert
func (m *MockMessageRepository) BulkInsert(ctx context.Context, msgs []domain.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

// FindByConversation mock history read
func (m *MockMessageRepository) FindByConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPubSub Mock PubSub
type MockPubSub struct {
	mock.Mock
}

// PublishCountUpdate mock count update publish
func (m *MockPubSub) PublishCountUpdate(ctx context.Context, update domain.CountUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// SubscribeCountUpdates mock count update subscribe
func (m *MockPubSub) SubscribeCountUpdates(ctx context.Context, recipientKey string, handler func(update domain.CountUpdate)) error {
	args := m.Called(ctx, recipientKey, handler)
	return args.Error(0)
}

// recorderConn records written frames instead of touching a socket
type recorderConn struct {
	mu     sync.Mutex
	frames []json.RawMessage
	err    error
}

func (c *recorderConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *recorderConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *recorderConn) last() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}
