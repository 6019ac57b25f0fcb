package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-dashboard/internal/cache"
	"energy-dashboard/internal/models"
)

// fakeKVStore in-memory KV with TTL for unit tests
type fakeKVStore struct {
	mu   sync.Mutex
	data map[string]fakeKVItem
}

type fakeKVItem struct {
	value   string
	expires time.Time // zero = no ttl
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{data: make(map[string]fakeKVItem)}
}

func (f *fakeKVStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	if !item.expires.IsZero() && time.Now().After(item.expires) {
		delete(f.data, key)
		return "", cache.ErrCacheMiss
	}
	return item.value, nil
}

func (f *fakeKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	f.data[key] = fakeKVItem{value: value, expires: exp}
	return nil
}

func sampleDataset() *models.ParticipantDataset {
	start := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	ds := models.NewParticipantDataset()
	ds.Set("tv", models.DeviceSeries{
		Name:       "TV",
		Values:     []float64{0.1, 0.2},
		Timestamps: []time.Time{start, start.Add(time.Hour)},
	})
	ds.Set("lamp", models.DeviceSeries{
		Name:       "Lamp",
		Values:     []float64{0.3},
		Timestamps: []time.Time{start},
	})
	return ds
}

func TestDatasetCache_PutGet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewDatasetCache(newFakeKVStore(), time.Minute)

	require.NoError(t, c.Put(ctx, "P0", sampleDataset()))

	got, err := c.Get(ctx, "P0")
	require.NoError(t, err)
	assert.Equal(t, []string{"tv", "lamp"}, got.Keys())

	tv, ok := got.Get("tv")
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.2}, tv.Values)
	assert.True(t, tv.Timestamps[1].Equal(time.Date(2024, 1, 7, 1, 0, 0, 0, time.UTC)))
}

func TestDatasetCache_Miss(t *testing.T) {
	c := cache.NewDatasetCache(newFakeKVStore(), 0)

	_, err := c.Get(context.Background(), "P1")
	assert.True(t, errors.Is(err, cache.ErrCacheMiss))
}

func TestDatasetCache_Expired(t *testing.T) {
	ctx := context.Background()
	c := cache.NewDatasetCache(newFakeKVStore(), time.Millisecond)

	require.NoError(t, c.Put(ctx, "P0", sampleDataset()))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "P0")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestDatasetCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKVStore()
	require.NoError(t, kv.Set(ctx, cache.DatasetKeyPrefix+"P0", "not json", 0))

	_, err := cache.NewDatasetCache(kv, 0).Get(ctx, "P0")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
