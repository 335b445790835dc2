package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	chatdomain "marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/internal/gateway/domain"
	"marketplace_chat_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	m.Run()
}

func TestRouteChatEvent_PushAndEcho(t *testing.T) {
	ctx := context.Background()
	convID := uuid.New().String()

	mockBus := new(MockBusWriter)
	mockCounters := new(MockCounterRepository)
	mockPresence := new(MockPresenceRepository)

	registry := NewConnRegistry()
	buyerConn := &recorderConn{}
	sellerConn := &recorderConn{}
	registry.Register("buyer_u1", buyerConn)
	registry.Register("seller_s1", sellerConn)

	mockBus.On("WriteMessages", ctx, mock.Anything).Return(nil)

	uc := NewRouteMessageUseCase(registry, mockBus, mockCounters, mockPresence, 300*time.Second)
	err := uc.RouteChatEvent(ctx, &domain.ChatEvent{
		FromUserID:     "u1",
		ToUserID:       "s1",
		MessageBody:    "is this still available?",
		ConversationID: convID,
		SenderType:     "buyer",
	})

	assert.NoError(t, err)

	// one live push to the seller, one echo back to the buyer
	assert.Equal(t, 1, sellerConn.count())
	assert.Equal(t, 1, buyerConn.count())

	var frame domain.PushFrame
	assert.NoError(t, json.Unmarshal(sellerConn.last(), &frame))
	assert.Equal(t, domain.FrameNewMessage, frame.Type)

	payload := frame.Payload.(map[string]interface{})
	assert.Equal(t, convID, payload["conversationId"])
	assert.Equal(t, "u1", payload["senderId"])
	assert.Equal(t, "buyer", payload["senderType"])
	assert.Equal(t, "is this still available?", payload["content"])

	mockBus.AssertExpectations(t)
}

func TestRouteChatEvent_BusKeyedByConversation(t *testing.T) {
	ctx := context.Background()
	convID := uuid.New().String()

	mockBus := new(MockBusWriter)

	uc := NewRouteMessageUseCase(NewConnRegistry(), mockBus, new(MockCounterRepository), new(MockPresenceRepository), 300*time.Second)

	var capturedKey []byte
	var capturedValue []byte
	mockBus.On("WriteMessages", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		msgs := args.Get(1).([]kafka.Message)
		capturedKey = msgs[0].Key
		capturedValue = msgs[0].Value
	})

	err := uc.RouteChatEvent(ctx, &domain.ChatEvent{
		FromUserID:     "u1",
		ToUserID:       "s1",
		MessageBody:    "hello",
		ConversationID: convID,
		SenderType:     "buyer",
	})

	assert.NoError(t, err)
	assert.Equal(t, convID, string(capturedKey))

	var event chatdomain.MessageEvent
	assert.NoError(t, json.Unmarshal(capturedValue, &event))
	assert.Equal(t, "u1", event.SenderID)
	assert.Equal(t, "buyer", event.SenderType)
	assert.False(t, event.CreatedAt.IsZero())

	mockBus.AssertExpectations(t)
}

func TestRouteChatEvent_OfflineRecipient(t *testing.T) {
	ctx := context.Background()

	mockBus := new(MockBusWriter)
	mockBus.On("WriteMessages", ctx, mock.Anything).Return(nil)

	// nobody connected at all; routing still succeeds through the bus
	uc := NewRouteMessageUseCase(NewConnRegistry(), mockBus, new(MockCounterRepository), new(MockPresenceRepository), 300*time.Second)
	err := uc.RouteChatEvent(ctx, &domain.ChatEvent{
		FromUserID:     "u1",
		ToUserID:       "s1",
		MessageBody:    "anyone there?",
		ConversationID: uuid.New().String(),
		SenderType:     "buyer",
	})

	assert.NoError(t, err)
	mockBus.AssertExpectations(t)
}

func TestRouteChatEvent_RejectsIncompleteEvent(t *testing.T) {
	ctx := context.Background()

	mockBus := new(MockBusWriter)
	uc := NewRouteMessageUseCase(NewConnRegistry(), mockBus, new(MockCounterRepository), new(MockPresenceRepository), 300*time.Second)

	cases := []domain.ChatEvent{
		{ToUserID: "s1", MessageBody: "hi"},       // no conversation
		{ToUserID: "s1", ConversationID: "c1"},    // no body
		{MessageBody: "hi", ConversationID: "c1"}, // no recipient
		{FromUserID: "u1", SenderType: "buyer"},   // empty everything else
	}
	for _, ev := range cases {
		ev := ev
		assert.Error(t, uc.RouteChatEvent(ctx, &ev))
	}

	// nothing reached the bus
	mockBus.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}

func TestRouteChatEvent_BusFailure(t *testing.T) {
	ctx := context.Background()

	mockBus := new(MockBusWriter)
	mockBus.On("WriteMessages", ctx, mock.Anything).Return(errors.New("broker unreachable"))

	uc := NewRouteMessageUseCase(NewConnRegistry(), mockBus, new(MockCounterRepository), new(MockPresenceRepository), 300*time.Second)
	err := uc.RouteChatEvent(ctx, &domain.ChatEvent{
		FromUserID:     "u1",
		ToUserID:       "s1",
		MessageBody:    "hello",
		ConversationID: uuid.New().String(),
		SenderType:     "seller",
	})

	assert.Error(t, err)
}

func TestRegisterConnection_WritesPresenceLease(t *testing.T) {
	ctx := context.Background()

	mockPresence := new(MockPresenceRepository)
	mockPresence.On("SetOnline", ctx, "seller_s1", 300*time.Second).Return(nil)

	registry := NewConnRegistry()
	uc := NewRouteMessageUseCase(registry, new(MockBusWriter), new(MockCounterRepository), mockPresence, 300*time.Second)

	key := uc.RegisterConnection(ctx, chatdomain.RoleSeller, "s1", &recorderConn{})

	assert.Equal(t, "seller_s1", key)
	_, ok := registry.Get("seller_s1")
	assert.True(t, ok)
	mockPresence.AssertExpectations(t)
}

func TestRegisterConnection_PresenceFailureStillRegisters(t *testing.T) {
	ctx := context.Background()

	mockPresence := new(MockPresenceRepository)
	mockPresence.On("SetOnline", ctx, "buyer_u1", mock.Anything).Return(errors.New("redis down"))

	registry := NewConnRegistry()
	uc := NewRouteMessageUseCase(registry, new(MockBusWriter), new(MockCounterRepository), mockPresence, 300*time.Second)

	key := uc.RegisterConnection(ctx, chatdomain.RoleBuyer, "u1", &recorderConn{})

	// routing keeps working even when the presence store is unavailable
	assert.Equal(t, "buyer_u1", key)
	_, ok := registry.Get("buyer_u1")
	assert.True(t, ok)
}

func TestUnregisterConnection_DeletesPresence(t *testing.T) {
	ctx := context.Background()

	mockPresence := new(MockPresenceRepository)
	mockPresence.On("SetOnline", ctx, "buyer_u1", mock.Anything).Return(nil)
	mockPresence.On("SetOffline", ctx, "buyer_u1").Return(nil)

	registry := NewConnRegistry()
	uc := NewRouteMessageUseCase(registry, new(MockBusWriter), new(MockCounterRepository), mockPresence, 300*time.Second)

	key := uc.RegisterConnection(ctx, chatdomain.RoleBuyer, "u1", &recorderConn{})
	uc.UnregisterConnection(ctx, key)

	_, ok := registry.Get("buyer_u1")
	assert.False(t, ok)
	mockPresence.AssertExpectations(t)
}

func TestMarkSeen_Idempotent(t *testing.T) {
	ctx := context.Background()
	convID := uuid.New().String()

	mockCounters := new(MockCounterRepository)
	mockCounters.On("Reset", ctx, "buyer_u1", convID).Return(nil).Twice()

	uc := NewRouteMessageUseCase(NewConnRegistry(), new(MockBusWriter), mockCounters, new(MockPresenceRepository), 300*time.Second)

	assert.NoError(t, uc.MarkSeen(ctx, chatdomain.RoleBuyer, "u1", convID))
	assert.NoError(t, uc.MarkSeen(ctx, chatdomain.RoleBuyer, "u1", convID))
	mockCounters.AssertExpectations(t)
}

func TestMarkSeen_MissingConversation(t *testing.T) {
	uc := NewRouteMessageUseCase(NewConnRegistry(), new(MockBusWriter), new(MockCounterRepository), new(MockPresenceRepository), 300*time.Second)
	assert.Error(t, uc.MarkSeen(context.Background(), chatdomain.RoleBuyer, "u1", ""))
}

func TestMarkSeen_CounterFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	convID := uuid.New().String()

	mockCounters := new(MockCounterRepository)
	mockCounters.On("Reset", ctx, "seller_s1", convID).Return(errors.New("redis down"))

	uc := NewRouteMessageUseCase(NewConnRegistry(), new(MockBusWriter), mockCounters, new(MockPresenceRepository), 300*time.Second)

	assert.NoError(t, uc.MarkSeen(ctx, chatdomain.RoleSeller, "s1", convID))
}
