package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-multipart/internal/logging"
)

func TestMemoryCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	_, err := c.Get(ctx, "container:1:2:3")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Set(ctx, "container:1:2:3", []byte("snap"), 0))
	got, err := c.Get(ctx, "container:1:2:3")
	require.NoError(t, err)
	assert.Equal(t, []byte("snap"), got)

	ok, err := c.Exists(ctx, "container:1:2:3")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "container:1:2:3"))
	_, err = c.Get(ctx, "container:1:2:3")
	assert.ErrorIs(t, err, ErrCacheMiss)

	m := c.GetMetrics()
	assert.Equal(t, int64(3), m.TotalRequests)
	assert.Equal(t, int64(1), m.CacheHits)
	assert.InDelta(t, 1.0/3.0, m.HitRatio, 1e-9)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Second))
	now = now.Add(9 * time.Second)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Zero(t, c.GetMetrics().TotalKeys)
}

func TestMemoryCacheInvalidKeyAndClose(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	assert.ErrorIs(t, c.Set(ctx, "", nil, 0), ErrInvalidKey)
	_, err := c.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrCacheClosed)
}

func TestInvalidatorHandleData(t *testing.T) {
	logger := logging.NewWriterLogger("cache-test", io.Discard, logging.ERROR)
	inv := newInvalidator(&InvalidatorConfig{DedupeWindow: time.Second}, "node-a", logger)

	var keys []string
	inv.handler = func(key string) error {
		keys = append(keys, key)
		if key == "bad" {
			return errors.New("boom")
		}
		return nil
	}

	encode := func(key, node string) []byte {
		data, err := json.Marshal(InvalidationMessage{Key: key, NodeID: node, Timestamp: time.Now()})
		require.NoError(t, err)
		return data
	}

	inv.handleData(encode("container:0:0:0", "node-b"))
	inv.handleData(encode("container:9:9:9", "node-a")) // своё сообщение
	inv.handleData(encode("bad", "node-b"))
	inv.handleData([]byte("{"))

	assert.Equal(t, []string{"container:0:0:0", "bad"}, keys)
	_, received, errs := inv.Stats()
	assert.Equal(t, int64(4), received)
	assert.Equal(t, int64(2), errs)
}

func TestInvalidatorDedupe(t *testing.T) {
	inv := newInvalidator(&InvalidatorConfig{DedupeWindow: time.Hour}, "node-a", logging.Default())
	assert.False(t, inv.isDuplicate("k"))
	inv.recordKey("k")
	assert.True(t, inv.isDuplicate("k"))

	inv.config.DedupeWindow = 0
	inv.cleanupDedupe()
	assert.False(t, inv.isDuplicate("k"))
}
