package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"Pedalize/models"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

const (
	maxJitterMinutes    = 5
	breakerFailures     = 5
	breakerOpenDuration = 30 * time.Second
)

var errInvalidatePending = errors.New("product cache invalidation pending")

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
	breaker *gobreaker.CircuitBreaker[[]byte]
	// 尚未成功送出的清除次數，大於0時不讀寫快取
	pendingInvalidations atomic.Int64
}

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return newRedisCache(client, baseTTL, breakerOpenDuration)
}

func newRedisCache(client *redis.Client, baseTTL, openDuration time.Duration) *RedisCache {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "redis-product-cache",
		Timeout: openDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[Cache] circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
		breaker: breaker,
	}
}

// 補送先前失敗的清除，斷路器開啟時不碰Redis
func (r *RedisCache) flushPending(ctx context.Context) error {
	pending := r.pendingInvalidations.Load()
	if pending == 0 {
		return nil
	}

	_, err := r.breaker.Execute(func() ([]byte, error) {
		return nil, r.deleteProductKeys(ctx)
	})
	if err != nil {
		return errors.Join(errInvalidatePending, err)
	}

	r.pendingInvalidations.CompareAndSwap(pending, 0)
	return nil
}

func (r *RedisCache) get(ctx context.Context, key string) ([]byte, error) {
	if err := r.flushPending(ctx); err != nil {
		return nil, err
	}

	return r.breaker.Execute(func() ([]byte, error) {
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		if err != nil {
			return nil, fmt.Errorf("redis get failed: %w", err)
		}
		return data, nil
	})
}

func (r *RedisCache) set(ctx context.Context, key string, value any) error {
	if err := r.flushPending(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	jitter := time.Duration(rand.Intn(maxJitterMinutes)) * time.Minute
	_, err = r.breaker.Execute(func() ([]byte, error) {
		if err := r.client.Set(ctx, key, data, r.baseTTL+jitter).Err(); err != nil {
			return nil, fmt.Errorf("redis set failed: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *RedisCache) GetProducts(ctx context.Context, key string) ([]models.Product, error) {
	data, err := r.get(ctx, key)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal products failed: %w", err)
	}
	return products, nil
}

func (r *RedisCache) SetProducts(ctx context.Context, key string, products []models.Product) error {
	return r.set(ctx, key, products)
}

func (r *RedisCache) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	data, err := r.get(ctx, productKey(id))
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return &product, nil
}

func (r *RedisCache) SetProduct(ctx context.Context, product *models.Product) error {
	return r.set(ctx, productKey(product.ID), product)
}

func (r *RedisCache) deleteProductKeys(ctx context.Context) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// 刪除所有product:*的key。不經過斷路器；失敗時記下，之後的讀寫會先補送
func (r *RedisCache) Invalidate(ctx context.Context) error {
	pending := r.pendingInvalidations.Add(1)
	if err := r.deleteProductKeys(ctx); err != nil {
		return err
	}
	r.pendingInvalidations.CompareAndSwap(pending, 0)
	return nil
}
