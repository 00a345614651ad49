package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/mmo-multipart/internal/logging"
)

// RedisCache реализует CacheRepo используя Redis как Hot Cache.
// Несколько узлов делят один Redis, поэтому инвалидация между ними не нужна.
type RedisCache struct {
	client *redis.Client
	config *CacheConfig

	metrics      CacheMetrics
	metricsMutex sync.RWMutex

	// Статистика latency
	latencySum   int64 // в наносекундах
	latencyCount int64
	maxLatency   int64
}

// NewRedisCache создаёт Redis кеш и проверяет соединение.
func NewRedisCache(config *CacheConfig) (*RedisCache, error) {
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 30 * time.Second
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = 10
	}
	if config.PoolTimeout == 0 {
		config.PoolTimeout = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.MaxConnections,
		PoolTimeout:  config.PoolTimeout,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis cache initialized: %s (ttl=%v)", config.RedisURL, config.DefaultTTL)
	return &RedisCache{
		client:  rdb,
		config:  config,
		metrics: CacheMetrics{LastUpdate: time.Now()},
	}, nil
}

// Get получает значение по ключу из Redis кеша.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	start := time.Now()
	defer r.recordLatency(start)

	r.metricsMutex.Lock()
	r.metrics.TotalRequests++
	r.metricsMutex.Unlock()

	val, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		r.count(true)
		return val, nil
	case errors.Is(err, redis.Nil):
		r.count(false)
		return nil, ErrCacheMiss
	default:
		r.count(false)
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
}

// Set сохраняет значение в Redis с TTL (0 – TTL по умолчанию).
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}
	start := time.Now()
	defer r.recordLatency(start)

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete удаляет ключ из Redis.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Exists проверяет существование ключа.
func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Close закрывает соединение с Redis.
func (r *RedisCache) Close() error {
	logging.Info("Redis cache closed")
	return r.client.Close()
}

// GetMetrics возвращает копию метрик кеша.
func (r *RedisCache) GetMetrics() CacheMetrics {
	r.metricsMutex.RLock()
	m := r.metrics
	r.metricsMutex.RUnlock()

	if cnt := atomic.LoadInt64(&r.latencyCount); cnt > 0 {
		m.AvgLatencyMs = float64(atomic.LoadInt64(&r.latencySum)) / float64(cnt) / 1e6
	}
	m.MaxLatencyMs = float64(atomic.LoadInt64(&r.maxLatency)) / 1e6
	if n, err := r.client.DBSize(context.Background()).Result(); err == nil {
		m.TotalKeys = n
	}
	return m
}

func (r *RedisCache) count(hit bool) {
	r.metricsMutex.Lock()
	defer r.metricsMutex.Unlock()
	if hit {
		r.metrics.CacheHits++
	} else {
		r.metrics.CacheMisses++
	}
	r.metrics.HitRatio = hitRatio(r.metrics.CacheHits, r.metrics.TotalRequests)
	r.metrics.LastUpdate = time.Now()
}

// recordLatency записывает latency операции.
func (r *RedisCache) recordLatency(start time.Time) {
	latency := time.Since(start).Nanoseconds()
	atomic.AddInt64(&r.latencySum, latency)
	atomic.AddInt64(&r.latencyCount, 1)

	for {
		current := atomic.LoadInt64(&r.maxLatency)
		if latency <= current || atomic.CompareAndSwapInt64(&r.maxLatency, current, latency) {
			return
		}
	}
}
