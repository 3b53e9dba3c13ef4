package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time interface guard.
var _ SettingsRepository = (*RedisSettingsRepository)(nil)

// DefaultRedisHash is the hash that holds fleetdeck settings.
const DefaultRedisHash = "fleetdeck:settings"

// RedisSettingsRepository stores settings as fields of a single Redis hash.
// Update times live in a sibling hash suffixed with ":updated".
type RedisSettingsRepository struct {
	client *redis.Client
	hash   string
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Hash     string
}

// NewRedisSettingsRepository connects to Redis and verifies the connection.
func NewRedisSettingsRepository(ctx context.Context, opts RedisOptions) (*RedisSettingsRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %q: %w", opts.Addr, err)
	}
	hash := opts.Hash
	if hash == "" {
		hash = DefaultRedisHash
	}
	return &RedisSettingsRepository{client: client, hash: hash}, nil
}

func (r *RedisSettingsRepository) updatedHash() string { return r.hash + ":updated" }

func (r *RedisSettingsRepository) Get(ctx context.Context, key string) (*Setting, error) {
	val, err := r.client.HGet(ctx, r.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	s := &Setting{Key: key, Value: val}
	if ts, err := r.client.HGet(ctx, r.updatedHash(), key).Result(); err == nil {
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return s, nil
}

func (r *RedisSettingsRepository) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, r.hash, key, value)
		p.HSet(ctx, r.updatedHash(), key, now)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

func (r *RedisSettingsRepository) Delete(ctx context.Context, key string) error {
	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		removed = p.HDel(ctx, r.hash, key)
		p.HDel(ctx, r.updatedHash(), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	if removed.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisSettingsRepository) GetAll(ctx context.Context) ([]Setting, error) {
	vals, err := r.client.HGetAll(ctx, r.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	stamps, _ := r.client.HGetAll(ctx, r.updatedHash()).Result()

	out := make([]Setting, 0, len(vals))
	for k, v := range vals {
		s := Setting{Key: k, Value: v}
		if ts, ok := stamps[k]; ok {
			s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *RedisSettingsRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (r *RedisSettingsRepository) Close() error {
	return r.client.Close()
}
