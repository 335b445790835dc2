package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	chatdomain "marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/internal/chat/repository"
	"marketplace_chat_service/internal/gateway/domain"
	errprocess "marketplace_chat_service/pkg/err"
	"marketplace_chat_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// BusWriter publish side of the durable message bus, satisfied by *kafka.Writer
type BusWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// RouteMessageUseCase route inbound chat events: fan-out to the online
// recipient and the sender's own connections, then publish to the bus.
// Durability is guaranteed by the bus, not by the live path.
type RouteMessageUseCase struct {
	registry    *ConnRegistry
	bus         BusWriter
	counters    repository.CounterRepository
	presence    repository.PresenceRepository
	presenceTTL time.Duration
}

// NewRouteMessageUseCase create a RouteMessageUseCase
func NewRouteMessageUseCase(
	registry *ConnRegistry,
	bus BusWriter,
	counters repository.CounterRepository,
	presence repository.PresenceRepository,
	presenceTTL time.Duration,
) *RouteMessageUseCase {
	return &RouteMessageUseCase{
		registry:    registry,
		bus:         bus,
		counters:    counters,
		presence:    presence,
		presenceTTL: presenceTTL,
	}
}

// RegisterConnection store the connection under its identity key and
// write the presence lease. The lease TTL is fixed and refreshed only
// here, not on later activity.
func (uc *RouteMessageUseCase) RegisterConnection(ctx context.Context, role chatdomain.Role, userID string, conn Conn) string {
	key := chatdomain.IdentityKey(role, userID)
	uc.registry.Register(key, conn)

	// presence store is best effort, a failed lease write only degrades
	// the online indicator
	if err := uc.presence.SetOnline(ctx, key, uc.presenceTTL); err != nil {
		logger.Log.Errorf("presence write failed:", err, zap.String("identity", key))
	}
	return key
}

// UnregisterConnection remove the connection and delete the presence
// lease right away instead of waiting for the TTL
func (uc *RouteMessageUseCase) UnregisterConnection(ctx context.Context, identityKey string) {
	uc.registry.Unregister(identityKey)

	if err := uc.presence.SetOffline(ctx, identityKey); err != nil {
		logger.Log.Errorf("presence delete failed:", err, zap.String("identity", identityKey))
	}
}

// RouteChatEvent validate and route one chat event
func (uc *RouteMessageUseCase) RouteChatEvent(ctx context.Context, ev *domain.ChatEvent) error {
	// 1. validate; the caller logs and keeps the connection alive
	if ev.ToUserID == "" || ev.MessageBody == "" || ev.ConversationID == "" {
		return errprocess.Set("chat event missing recipient, body or conversation reference")
	}

	// 2. recipient is keyed under the opposite role of the sender
	senderRole := chatdomain.ParseRole(ev.SenderType)
	recipientKey := chatdomain.IdentityKey(senderRole.Opposite(), ev.ToUserID)
	senderKey := chatdomain.IdentityKey(senderRole, ev.FromUserID)

	event := chatdomain.MessageEvent{
		ConversationID: ev.ConversationID,
		SenderID:       ev.FromUserID,
		SenderType:     string(senderRole),
		Content:        ev.MessageBody,
		CreatedAt:      time.Now().UTC(),
	}
	frame := domain.NewMessageFrame(event)

	// 3. live push to the recipient if connected; absence is not an error
	if conn, ok := uc.registry.Get(recipientKey); ok {
		if err := conn.WriteJSON(frame); err != nil {
			logger.Log.Errorf("push to recipient failed:", err, zap.String("identity", recipientKey))
		}
	}

	// 4. echo to the sender's own connection so other open sessions see it
	if conn, ok := uc.registry.Get(senderKey); ok {
		if err := conn.WriteJSON(frame); err != nil {
			logger.Log.Errorf("echo to sender failed:", err, zap.String("identity", senderKey))
		}
	}

	// 5. publish to the bus keyed by conversation, so one conversation
	// stays on one partition
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := uc.bus.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ConversationID),
		Value: value,
	}); err != nil {
		return errprocess.Set(fmt.Sprintf("bus publish failed: %v", err))
	}

	return nil
}

// MarkSeen reset the caller's unseen counter for one conversation.
// The reset is idempotent; it touches neither the bus nor storage.
func (uc *RouteMessageUseCase) MarkSeen(ctx context.Context, role chatdomain.Role, userID, conversationID string) error {
	if conversationID == "" {
		return errprocess.Set("mark-as-seen missing conversation reference")
	}

	key := chatdomain.IdentityKey(role, userID)
	if err := uc.counters.Reset(ctx, key, conversationID); err != nil {
		// counter store is best effort
		logger.Log.Errorf("unseen counter reset failed:", err, zap.String("identity", key))
	}
	return nil
}
