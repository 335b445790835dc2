package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const unseenKeyPrefix = "chat:unseen:"

// UnseenKey redis key of a recipient's per-conversation unseen counter
func UnseenKey(recipientKey, conversationID string) string {
	return fmt.Sprintf("%s%s:%s", unseenKeyPrefix, recipientKey, conversationID)
}

// CounterRepository per-recipient, per-conversation unseen counters.
// Increment and Reset are atomic, so concurrent writers from several
// worker or gateway instances never lose updates.
type CounterRepository interface {
	Increment(ctx context.Context, recipientKey, conversationID string, n int64) (int64, error)
	Reset(ctx context.Context, recipientKey, conversationID string) error
	Get(ctx context.Context, recipientKey, conversationID string) (int64, error)
}

type counterRepository struct {
	client *redis.Client
}

// NewCounterRepository create a CounterRepository
func NewCounterRepository(client *redis.Client) CounterRepository {
	return &counterRepository{client: client}
}

func (r *counterRepository) Increment(ctx context.Context, recipientKey, conversationID string, n int64) (int64, error) {
	return r.client.IncrBy(ctx, UnseenKey(recipientKey, conversationID), n).Result()
}

// Reset delete the counter key; deleting an absent key is a no-op, so
// a repeated mark-as-seen has the same effect as a single one.
func (r *counterRepository) Reset(ctx context.Context, recipientKey, conversationID string) error {
	return r.client.Del(ctx, UnseenKey(recipientKey, conversationID)).Err()
}

func (r *counterRepository) Get(ctx context.Context, recipientKey, conversationID string) (int64, error) {
	count, err := r.client.Get(ctx, UnseenKey(recipientKey, conversationID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}
