package repository

import (
	"context"
	"time"

	"marketplace_chat_service/pkg/database"
)

const (
	presenceKeyPrefix = "chat:presence:"
	// presenceMarker constant value, only the key's existence matters
	presenceMarker = "online"
)

// PresenceKey redis key of a participant's presence lease
func PresenceKey(identityKey string) string {
	return presenceKeyPrefix + identityKey
}

// PresenceRepository presence lease per connected participant.
// The lease is written once at connection-open with a fixed TTL and
// deleted on graceful disconnect; an expired or absent key both mean
// offline.
type PresenceRepository interface {
	SetOnline(ctx context.Context, identityKey string, ttl time.Duration) error
	SetOffline(ctx context.Context, identityKey string) error
	IsOnline(ctx context.Context, identityKey string) (bool, error)
}

type presenceRepository struct {
	kv database.RedisRepository[string]
}

// NewPresenceRepository create a PresenceRepository
func NewPresenceRepository(kv database.RedisRepository[string]) PresenceRepository {
	return &presenceRepository{kv: kv}
}

func (r *presenceRepository) SetOnline(ctx context.Context, identityKey string, ttl time.Duration) error {
	return r.kv.Set(ctx, PresenceKey(identityKey), presenceMarker, ttl)
}

func (r *presenceRepository) SetOffline(ctx context.Context, identityKey string) error {
	return r.kv.Del(ctx, PresenceKey(identityKey))
}

func (r *presenceRepository) IsOnline(ctx context.Context, identityKey string) (bool, error) {
	_, err := r.kv.Get(ctx, PresenceKey(identityKey))
	if err == database.ErrRedisNil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
