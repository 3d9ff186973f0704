package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jaennil/guide_helper/backend/tiledb/internal/model"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps the catalog as one redis hash of id -> JSON provider,
// which lets several service replicas share it.
type RedisRepository struct {
	client *redis.Client
	key    string
	logger logger.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

var _ Repository = (*RedisRepository)(nil)

func NewRedisRepository(cfg RedisConfig, l logger.Logger) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "tiledb:maps"
	}

	l.Info("redis catalog initialized", "addr", cfg.Addr, "key", key)

	return &RedisRepository{
		client: client,
		key:    key,
		logger: l,
	}, nil
}

func (r *RedisRepository) Get(ctx context.Context, id string) (model.MapProvider, error) {
	data, err := r.client.HGet(ctx, r.key, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.MapProvider{}, fmt.Errorf("%w: %s", model.ErrUnknownMap, id)
		}
		return model.MapProvider{}, fmt.Errorf("redis hget error: %w", err)
	}

	var p model.MapProvider
	if err := json.Unmarshal(data, &p); err != nil {
		return model.MapProvider{}, fmt.Errorf("corrupt catalog entry %s: %w", id, err)
	}

	return p, nil
}

func (r *RedisRepository) List(ctx context.Context) ([]model.MapProvider, error) {
	entries, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall error: %w", err)
	}

	providers := make([]model.MapProvider, 0, len(entries))
	for id, raw := range entries {
		var p model.MapProvider
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			r.logger.Warn("skipping corrupt catalog entry", "id", id, "error", err)
			continue
		}
		providers = append(providers, p)
	}

	sort.Slice(providers, func(i, j int) bool { return providers[i].ID < providers[j].ID })

	return providers, nil
}

func (r *RedisRepository) Add(ctx context.Context, p model.MapProvider) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	ok, err := r.client.HSetNX(ctx, r.key, p.ID, data).Result()
	if err != nil {
		return fmt.Errorf("redis hsetnx error: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrProviderExists, p.ID)
	}

	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.HDel(ctx, r.key, id).Result()
	if err != nil {
		return fmt.Errorf("redis hdel error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", model.ErrUnknownMap, id)
	}

	return nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
