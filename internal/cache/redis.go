// Package cache реализует кэширование датасетов участников в Redis
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// DatasetKeyPrefix префикс для ключей датасетов
	DatasetKeyPrefix = "dataset:"
	// DefaultTTL время жизни записи по умолчанию
	DefaultTTL = 5 * time.Minute
)

// ErrCacheMiss возвращается, если ключ отсутствует или истек
var ErrCacheMiss = errors.New("cache miss")

// KVStore абстрактное KV-хранилище (в тестах заменяет Redis)
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// RedisKVStore реализует KVStore поверх Redis
type RedisKVStore struct {
	client *redis.Client
}

// NewRedisKVStore создает новое подключение к Redis
func NewRedisKVStore(ctx context.Context, addr, password string, db int) (*RedisKVStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisKVStore{client: client}, nil
}

// Get получает значение по ключу
func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

// Set устанавливает значение с TTL
func (r *RedisKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Ping проверяет соединение с Redis
func (r *RedisKVStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close закрывает соединение
func (r *RedisKVStore) Close() error {
	return r.client.Close()
}
