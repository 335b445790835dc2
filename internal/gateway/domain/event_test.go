package domain

import (
	"encoding/json"
	"testing"
	"time"

	chatdomain "marketplace_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

func TestParseRegistration(t *testing.T) {
	cases := []struct {
		frame string
		role  chatdomain.Role
		id    string
	}{
		{"buyer_42", chatdomain.RoleBuyer, "42"},
		{"seller_99", chatdomain.RoleSeller, "99"},
		{"  buyer_42\n", chatdomain.RoleBuyer, "42"},
		// bare identity registers as buyer
		{"42", chatdomain.RoleBuyer, "42"},
		// only the first prefix is consumed
		{"seller_buyer_7", chatdomain.RoleSeller, "buyer_7"},
	}

	for _, c := range cases {
		role, id := ParseRegistration(c.frame)
		assert.Equal(t, c.role, role, c.frame)
		assert.Equal(t, c.id, id, c.frame)
	}
}

func TestParseFrame(t *testing.T) {
	ev, ok := ParseFrame([]byte(`{"type":"MARK_AS_SEEN","conversationId":"c1"}`))
	assert.True(t, ok)
	assert.Equal(t, FrameMarkAsSeen, ev.Type)
	assert.Equal(t, "c1", ev.ConversationID)

	ev, ok = ParseFrame([]byte(`{"toUserId":"s1","messageBody":"hi","conversationId":"c1"}`))
	assert.True(t, ok)
	assert.Empty(t, ev.Type)
	assert.Equal(t, "s1", ev.ToUserID)
	assert.Equal(t, "hi", ev.MessageBody)

	// a plain-text registration frame is not a structured event
	_, ok = ParseFrame([]byte("buyer_42"))
	assert.False(t, ok)
}

func TestNewMessageFrame(t *testing.T) {
	now := time.Now().UTC()
	frame := NewMessageFrame(chatdomain.MessageEvent{
		ConversationID: "c1",
		SenderID:       "u1",
		SenderType:     "buyer",
		Content:        "hello",
		CreatedAt:      now,
	})

	assert.Equal(t, FrameNewMessage, frame.Type)

	data, err := json.Marshal(frame)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"type":"NEW_MESSAGE"`)
	assert.Contains(t, string(data), `"conversationId":"c1"`)
	assert.Contains(t, string(data), `"senderId":"u1"`)
}

func TestCountFrame(t *testing.T) {
	frame := CountFrame("c1", 7)

	assert.Equal(t, FrameUnseenCountUpdate, frame.Type)
	payload := frame.Payload.(CountPayload)
	assert.Equal(t, "c1", payload.ConversationID)
	assert.Equal(t, int64(7), payload.Count)
}
