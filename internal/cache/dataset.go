package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"energy-dashboard/internal/metrics"
	"energy-dashboard/internal/models"
)

// DatasetCache хранит датасеты участников в KV как JSON
type DatasetCache struct {
	kv  KVStore
	ttl time.Duration
}

// NewDatasetCache создает кэш датасетов; ttl <= 0 означает DefaultTTL
func NewDatasetCache(kv KVStore, ttl time.Duration) *DatasetCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DatasetCache{kv: kv, ttl: ttl}
}

func datasetKey(participantID string) string {
	return DatasetKeyPrefix + participantID
}

// Get возвращает датасет участника или ErrCacheMiss
func (c *DatasetCache) Get(ctx context.Context, participantID string) (*models.ParticipantDataset, error) {
	raw, err := c.kv.Get(ctx, datasetKey(participantID))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			metrics.CacheMisses.Inc()
		}
		return nil, err
	}

	ds := models.NewParticipantDataset()
	if err := json.Unmarshal([]byte(raw), ds); err != nil {
		// Испорченная запись считается промахом
		metrics.CacheMisses.Inc()
		return nil, fmt.Errorf("%w: %v", ErrCacheMiss, err)
	}

	metrics.CacheHits.Inc()
	return ds, nil
}

// Put сохраняет датасет участника
func (c *DatasetCache) Put(ctx context.Context, participantID string, ds *models.ParticipantDataset) error {
	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	return c.kv.Set(ctx, datasetKey(participantID), string(data), c.ttl)
}
