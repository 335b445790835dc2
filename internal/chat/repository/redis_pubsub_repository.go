package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const pushChannelPrefix = "chat:push:"

// PushChannel redis pub/sub channel of a participant's live connection
func PushChannel(recipientKey string) string {
	return pushChannelPrefix + recipientKey
}

// PubSub count-update fan-out between the persistence worker and the
// gateway instance holding the recipient's connection
type PubSub interface {
	PublishCountUpdate(ctx context.Context, update domain.CountUpdate) error
	SubscribeCountUpdates(ctx context.Context, recipientKey string, handler func(update domain.CountUpdate)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// PublishCountUpdate serialize the update and publish it on the recipient's channel
func (r *RedisPubSub) PublishCountUpdate(ctx context.Context, update domain.CountUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, PushChannel(update.RecipientKey), data).Err()
}

// SubscribeCountUpdates subscribe the recipient's channel and call handler per update.
// The subscription lives until ctx is cancelled.
func (r *RedisPubSub) SubscribeCountUpdates(ctx context.Context, recipientKey string, handler func(update domain.CountUpdate)) error {
	channel := PushChannel(recipientKey)
	sub := r.client.Subscribe(ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var update domain.CountUpdate
				if err := json.Unmarshal([]byte(m.Payload), &update); err != nil {
					logger.Log.Error("count update decode failed", zap.String("err", err.Error()))
					continue
				}
				handler(update)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
