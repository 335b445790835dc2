package domain

import (
	"encoding/json"
	"strings"
	"time"

	chatdomain "marketplace_chat_service/internal/chat/domain"
)

// Frame types pushed to or received from clients
const (
	// FrameNewMessage server push carrying a routed chat message
	FrameNewMessage = "NEW_MESSAGE"
	// FrameUnseenCountUpdate server push carrying an unseen counter value
	FrameUnseenCountUpdate = "UNSEEN_COUNT_UPDATE"
	// FrameMarkAsSeen client event resetting a conversation's unseen counter
	FrameMarkAsSeen = "MARK_AS_SEEN"
)

// ChatEvent inbound structured frame
type ChatEvent struct {
	Type           string `json:"type,omitempty"`
	FromUserID     string `json:"fromUserId"`
	ToUserID       string `json:"toUserId"`
	MessageBody    string `json:"messageBody"`
	ConversationID string `json:"conversationId"`
	SenderType     string `json:"senderType"`
}

// PushFrame outbound frame
type PushFrame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewMessagePayload payload of a NEW_MESSAGE push
type NewMessagePayload struct {
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderType     string    `json:"senderType"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CountPayload payload of an UNSEEN_COUNT_UPDATE push
type CountPayload struct {
	ConversationID string `json:"conversationId"`
	Count          int64  `json:"count"`
}

// NewMessageFrame build the NEW_MESSAGE push for a routed event
func NewMessageFrame(e chatdomain.MessageEvent) PushFrame {
	return PushFrame{
		Type: FrameNewMessage,
		Payload: NewMessagePayload{
			ConversationID: e.ConversationID,
			SenderID:       e.SenderID,
			SenderType:     e.SenderType,
			Content:        e.Content,
			CreatedAt:      e.CreatedAt,
		},
	}
}

// CountFrame build the UNSEEN_COUNT_UPDATE push
func CountFrame(conversationID string, count int64) PushFrame {
	return PushFrame{
		Type:    FrameUnseenCountUpdate,
		Payload: CountPayload{ConversationID: conversationID, Count: count},
	}
}

// ParseFrame tagged-variant parse of an inbound text frame.
// The structured parse is attempted first; the plain-text registration
// reading only applies when that fails, and callers must further restrict
// it to frames received before the first successful structured parse.
func ParseFrame(raw []byte) (*ChatEvent, bool) {
	var ev ChatEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, false
	}
	return &ev, true
}

// ParseRegistration read a plain-text registration frame.
// Format is "<role>_<identity>"; a bare identity registers under the
// default buyer role.
func ParseRegistration(frame string) (chatdomain.Role, string) {
	s := strings.TrimSpace(frame)
	if rest, ok := strings.CutPrefix(s, string(chatdomain.RoleSeller)+"_"); ok {
		return chatdomain.RoleSeller, rest
	}
	if rest, ok := strings.CutPrefix(s, string(chatdomain.RoleBuyer)+"_"); ok {
		return chatdomain.RoleBuyer, rest
	}
	return chatdomain.RoleBuyer, s
}
