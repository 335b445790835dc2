package repository

import (
	"context"
	"time"

	"marketplace_chat_service/internal/chat/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ConversationRepository conversation lookup, used at conversation-start time
type ConversationRepository interface {
	// FindOrCreatePrivate lookup-before-create of the one-to-one
	// conversation for a (buyer, seller) pair. There is no uniqueness
	// constraint behind the check, so concurrent first-contact requests
	// can still create two rows for the same pair.
	FindOrCreatePrivate(ctx context.Context, buyerID, sellerID string) (*domain.Conversation, error)
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
}

type conversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository create a ConversationRepository
func NewConversationRepository(db *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) FindOrCreatePrivate(ctx context.Context, buyerID, sellerID string) (*domain.Conversation, error) {
	row := r.db.QueryRow(ctx,
		"SELECT id, buyer_id, seller_id, is_group, created_at FROM conversations WHERE buyer_id = $1 AND seller_id = $2 AND is_group = false",
		buyerID, sellerID)

	var conv domain.Conversation
	err := row.Scan(&conv.ID, &conv.BuyerID, &conv.SellerID, &conv.IsGroup, &conv.CreatedAt)
	if err == nil {
		return &conv, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	conv = domain.Conversation{
		ID:        uuid.New().String(),
		BuyerID:   buyerID,
		SellerID:  sellerID,
		IsGroup:   false,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.Exec(ctx,
		"INSERT INTO conversations(id, buyer_id, seller_id, is_group, created_at) VALUES ($1, $2, $3, $4, $5)",
		conv.ID, conv.BuyerID, conv.SellerID, conv.IsGroup, conv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	row := r.db.QueryRow(ctx,
		"SELECT id, buyer_id, seller_id, is_group, created_at FROM conversations WHERE id = $1", id)

	var conv domain.Conversation
	if err := row.Scan(&conv.ID, &conv.BuyerID, &conv.SellerID, &conv.IsGroup, &conv.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}
