package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Connect initializes a Redis client from URL or host:port input.
// Supporting both formats keeps local/dev and container config paths simple.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisBalanceCache is the read projection of creator_balances. Postgres stays
// authoritative; mutating paths invalidate the key.
type RedisBalanceCache struct {
	client *redis.Client
}

func NewRedisBalanceCache(client *redis.Client) *RedisBalanceCache {
	return &RedisBalanceCache{client: client}
}

func (c *RedisBalanceCache) Get(ctx context.Context, creatorID uuid.UUID) (*domain.CreatorBalance, error) {
	raw, err := c.client.Get(ctx, "settlement:balance:"+creatorID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.CreatorBalance
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RedisBalanceCache) Set(ctx context.Context, balance domain.CreatorBalance, ttl time.Duration) error {
	raw, err := json.Marshal(balance)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "settlement:balance:"+balance.CreatorID.String(), raw, ttl).Err()
}

func (c *RedisBalanceCache) Invalidate(ctx context.Context, creatorID uuid.UUID) error {
	return c.client.Del(ctx, "settlement:balance:"+creatorID.String()).Err()
}

// RedisInstructionStore holds generated payment instructions until they expire
// or the provider callback lands. Instructions are ephemeral by design and
// never touch Postgres.
type RedisInstructionStore struct {
	client *redis.Client
}

func NewRedisInstructionStore(client *redis.Client) *RedisInstructionStore {
	return &RedisInstructionStore{client: client}
}

func (s *RedisInstructionStore) Put(ctx context.Context, instruction domain.PaymentInstruction, ttl time.Duration) error {
	raw, err := json.Marshal(instruction)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "settlement:instruction:"+instruction.OrderID.String(), raw, ttl).Err()
}

func (s *RedisInstructionStore) Get(ctx context.Context, orderID uuid.UUID) (*domain.PaymentInstruction, error) {
	raw, err := s.client.Get(ctx, "settlement:instruction:"+orderID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.PaymentInstruction
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
