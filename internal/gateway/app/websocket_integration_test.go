package app

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"marketplace_chat_service/internal/gateway/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const wsTestPort = 8091

func startGatewayApp(t *testing.T) (*fiber.App, *MockBusWriter) {
	t.Helper()

	mockBus := new(MockBusWriter)
	mockBus.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Maybe()

	mockCounters := new(MockCounterRepository)
	mockCounters.On("Reset", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	mockPresence := new(MockPresenceRepository)
	mockPresence.On("SetOnline", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	mockPresence.On("SetOffline", mock.Anything, mock.Anything).Return(nil).Maybe()

	mockPubSub := new(MockPubSub)
	mockPubSub.On("SubscribeCountUpdates", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	routeUC := NewRouteMessageUseCase(NewConnRegistry(), mockBus, mockCounters, mockPresence, 300*time.Second)
	handler := NewChatWebsocketHandler(routeUC, mockPubSub)

	app := fiber.New()
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		handler.HandleConnection(context.Background(), c)
	}))

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", wsTestPort)); err != nil {
			// Shutdown below closes the listener, nothing to do here
			_ = err
		}
	}()
	time.Sleep(300 * time.Millisecond)

	t.Cleanup(func() { _ = app.Shutdown() })

	return app, mockBus
}

func dialGateway(t *testing.T, registration string) *gws.Conn {
	t.Helper()

	conn, _, err := gws.DefaultDialer.Dial(fmt.Sprintf("ws://127.0.0.1:%d/ws", wsTestPort), nil)
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	assert.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(registration)))
	return conn
}

func readFrame(t *testing.T, conn *gws.Conn) domain.PushFrame {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := conn.ReadMessage()
	assert.NoError(t, err)

	var frame domain.PushFrame
	assert.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func TestWebsocketRouting(t *testing.T) {
	startGatewayApp(t)
	convID := uuid.New().String()

	buyer := dialGateway(t, "buyer_u1")
	seller := dialGateway(t, "seller_s1")

	// registration frames are handled asynchronously
	time.Sleep(200 * time.Millisecond)

	send := domain.ChatEvent{
		ToUserID:       "s1",
		MessageBody:    "is this still available?",
		ConversationID: convID,
	}
	raw, err := json.Marshal(send)
	assert.NoError(t, err)
	assert.NoError(t, buyer.WriteMessage(gws.TextMessage, raw))

	// the seller receives the live push
	frame := readFrame(t, seller)
	assert.Equal(t, domain.FrameNewMessage, frame.Type)
	payload := frame.Payload.(map[string]interface{})
	assert.Equal(t, convID, payload["conversationId"])
	assert.Equal(t, "u1", payload["senderId"])
	assert.Equal(t, "buyer", payload["senderType"])

	// the buyer's own connection receives the echo
	echo := readFrame(t, buyer)
	assert.Equal(t, domain.FrameNewMessage, echo.Type)
}

func TestWebsocketDropsEventBeforeRegistration(t *testing.T) {
	startGatewayApp(t)

	conn, _, err := gws.DefaultDialer.Dial(fmt.Sprintf("ws://127.0.0.1:%d/ws", wsTestPort), nil)
	assert.NoError(t, err)
	defer conn.Close()

	// a structured event without prior registration is dropped silently
	raw := []byte(`{"toUserId":"s1","messageBody":"hi","conversationId":"c1"}`)
	assert.NoError(t, conn.WriteMessage(gws.TextMessage, raw))

	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err) // deadline, nothing was pushed back
}

func TestWebsocketMarkAsSeen(t *testing.T) {
	_, mockBus := startGatewayApp(t)

	buyer := dialGateway(t, "buyer_u1")
	time.Sleep(200 * time.Millisecond)

	raw := []byte(`{"type":"MARK_AS_SEEN","conversationId":"c1"}`)
	assert.NoError(t, buyer.WriteMessage(gws.TextMessage, raw))
	time.Sleep(200 * time.Millisecond)

	// mark-as-seen never reaches the bus
	mockBus.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}
