package source

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"energy-dashboard/internal/cache"
	"energy-dashboard/internal/models"
)

// CachedSource кэширует датасеты другого источника
type CachedSource struct {
	next   DataSource
	cache  *cache.DatasetCache
	logger *zap.Logger
}

// NewCachedSource оборачивает источник кэшем
func NewCachedSource(next DataSource, c *cache.DatasetCache, logger *zap.Logger) *CachedSource {
	return &CachedSource{next: next, cache: c, logger: logger}
}

// FetchDataset возвращает датасет из кэша или загружает и сохраняет его
func (s *CachedSource) FetchDataset(ctx context.Context, participantID string) (*models.ParticipantDataset, error) {
	if ds, err := s.cache.Get(ctx, participantID); err == nil {
		return ds, nil
	} else if !isMiss(err) {
		s.logger.Warn("Dataset cache read failed",
			zap.String("participant", participantID),
			zap.Error(err),
		)
	}

	ds, err := s.next.FetchDataset(ctx, participantID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(ctx, participantID, ds); err != nil {
		s.logger.Warn("Dataset cache write failed",
			zap.String("participant", participantID),
			zap.Error(err),
		)
	}
	return ds, nil
}

func isMiss(err error) bool {
	return errors.Is(err, cache.ErrCacheMiss)
}
