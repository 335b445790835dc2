package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message a persisted chat message row.
// CreatedAt is assigned by the gateway when the event is published,
// not by the storage layer; ordering inside a conversation relies on it
// because rows are inserted in unordered batches.
type Message struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ConversationID string    `gorm:"index" json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderType     string    `json:"sender_type"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName gorm table name
func (Message) TableName() string {
	return "messages"
}

// MessageEvent the wire shape carried on the bus topic.
// Partition key is ConversationID so messages of one conversation keep
// their relative order.
type MessageEvent struct {
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderType     string    `json:"senderType"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToMessage convert a bus event into a storable row
func (e MessageEvent) ToMessage() Message {
	return Message{
		ID:             uuid.New().String(),
		ConversationID: e.ConversationID,
		SenderID:       e.SenderID,
		SenderType:     e.SenderType,
		Content:        e.Content,
		CreatedAt:      e.CreatedAt,
	}
}

// CountUpdate an authoritative unseen-count change, published by the
// persistence worker after a successful flush and forwarded to the
// recipient's live connection by the gateway.
type CountUpdate struct {
	RecipientKey   string `json:"recipientKey"`
	ConversationID string `json:"conversationId"`
	Count          int64  `json:"count"`
}
