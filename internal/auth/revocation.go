package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList invalidates still-unexpired sessions of a user. Sessions are
// stateless JWTs, so deactivating or deleting an account would otherwise
// leave issued tokens usable until expiry. Reactivating an account must
// Unrevoke it, or fresh logins stay locked out until the entry expires.
type RevocationList interface {
	Revoke(ctx context.Context, userID string) error
	Unrevoke(ctx context.Context, userID string) error
	IsRevoked(ctx context.Context, userID string) (bool, error)
}

type redisRevocationList struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRevocationList builds a denylist whose entries live as long as the
// longest possible outstanding session.
func NewRedisRevocationList(client *redis.Client, sessionTTL time.Duration) RevocationList {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &redisRevocationList{client: client, ttl: sessionTTL}
}

func revocationKey(userID string) string {
	return "session:revoked:" + userID
}

func (l *redisRevocationList) Revoke(ctx context.Context, userID string) error {
	return l.client.Set(ctx, revocationKey(userID), "1", l.ttl).Err()
}

func (l *redisRevocationList) Unrevoke(ctx context.Context, userID string) error {
	return l.client.Del(ctx, revocationKey(userID)).Err()
}

func (l *redisRevocationList) IsRevoked(ctx context.Context, userID string) (bool, error) {
	_, err := l.client.Get(ctx, revocationKey(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
