// Package app собирает зависимости сервиса из конфигурации
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"energy-dashboard/internal/cache"
	"energy-dashboard/internal/config"
	"energy-dashboard/internal/cost"
	"energy-dashboard/internal/dashboard"
	"energy-dashboard/internal/source"
)

// redisAttempts число попыток подключения к Redis при старте
const redisAttempts = 5

// ConnectRedis подключается к Redis с повторами; nil, если Redis не настроен или недоступен
func ConnectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *cache.RedisKVStore {
	if cfg.RedisAddr == "" {
		logger.Info("Redis disabled, running without dataset cache")
		return nil
	}

	var lastErr error
	for i := 0; i < redisAttempts; i++ {
		kv, err := cache.NewRedisKVStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
			return kv
		}
		lastErr = err
		logger.Warn("Redis connection attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if i < redisAttempts-1 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(i+1) * time.Second):
			}
		}
	}

	logger.Warn("Failed to connect to Redis, running without cache", zap.Error(lastErr))
	return nil
}

// NewDataSource выбирает источник по конфигурации. Если задан kv,
// датасеты кэшируются; если включен DerivePeers, остальные участники
// выводятся из базового.
func NewDataSource(cfg *config.Config, kv cache.KVStore, logger *zap.Logger) (source.DataSource, error) {
	var src source.DataSource
	switch cfg.DataSource {
	case config.SourceSynthetic:
		src = source.NewSyntheticSource(cfg.SyntheticEnd, cfg.SyntheticDays, cfg.Participants)
	case config.SourceDir:
		src = source.NewDirSource(cfg.DataDir, logger)
	case config.SourceHTTP:
		src = source.NewHTTPSource(cfg.UpstreamURL, cfg.FetchTimeout, logger)
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}

	if kv != nil {
		src = source.NewCachedSource(src, cache.NewDatasetCache(kv, cfg.CacheTTL), logger)
	}
	if cfg.DerivePeers {
		src = source.NewVariantSource(src, cfg.BaseParticipant, cfg.Participants)
	}
	return src, nil
}

// NewService создает сервис дашборда
func NewService(cfg *config.Config, src source.DataSource, categorizers dashboard.CategorizerSource, logger *zap.Logger) *dashboard.Service {
	return dashboard.NewService(src, categorizers,
		cost.NewEstimator(cfg.UnitRate, cfg.CurrencySymbol),
		dashboard.Options{
			Peers:          cfg.Participants,
			ClipPeerTotals: cfg.PeerClipToWindow,
			HistoryDays:    cfg.HistoryDays,
		},
		logger,
	)
}
