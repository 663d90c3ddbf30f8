package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store. Each session's
// seen-set lives in a Redis SET whose TTL is refreshed on every draw;
// a ttl of 0 means sessions never expire.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "tarot:used:",
		ttl:    ttl,
	}
}

func (r *RedisStore) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisStore) Seen(ctx context.Context, sessionID string) (map[int]struct{}, error) {
	members, err := r.client.SMembers(ctx, r.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("session: failed to read seen-set: %w", err)
	}

	seen := make(map[int]struct{}, len(members))
	for _, m := range members {
		idx, err := strconv.Atoi(m)
		if err != nil {
			// Foreign member in the set; not one of ours.
			continue
		}
		seen[idx] = struct{}{}
	}

	return seen, nil
}

func (r *RedisStore) MarkSeen(ctx context.Context, sessionID string, indices []int) error {
	if len(indices) == 0 {
		return nil
	}

	members := make([]interface{}, len(indices))
	for i, idx := range indices {
		members[i] = idx
	}

	key := r.key(sessionID)

	if r.ttl <= 0 {
		if err := r.client.SAdd(ctx, key, members...).Err(); err != nil {
			return fmt.Errorf("session: failed to mark seen: %w", err)
		}
		return nil
	}

	// SADD and the TTL refresh ride in one MULTI/EXEC so the set can
	// never persist without a deadline.
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: failed to mark seen: %w", err)
	}

	return nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: failed to clear: %w", err)
	}
	return nil
}
