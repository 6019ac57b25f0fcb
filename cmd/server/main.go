// Package main запускает сервис дашборда энергопотребления
// Сервис реализует:
// - HTTP API снимков дашборда по участнику, дате и виду (день/неделя)
// - Базовые линии по истории и сравнение с другими участниками
// - Оценку стоимости и экономии по тарифу
// - Живые обновления по WebSocket
// - Кэширование датасетов в Redis
// - Экспорт метрик в Prometheus
package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"energy-dashboard/internal/app"
	"energy-dashboard/internal/cache"
	"energy-dashboard/internal/catalog"
	"energy-dashboard/internal/config"
	"energy-dashboard/internal/handlers"
	"energy-dashboard/internal/live"
	"energy-dashboard/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Логгер еще не создан
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "energy-dashboard")
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Energy Dashboard...",
		zap.String("go_version", runtime.Version()),
		zap.Int("num_cpu", runtime.NumCPU()),
		zap.String("data_source", cfg.DataSource),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis необязателен
	redisStore := app.ConnectRedis(ctx, cfg, log)
	var kv cache.KVStore
	var pinger handlers.Pinger
	if redisStore != nil {
		kv = redisStore
		pinger = redisStore
	}

	src, err := app.NewDataSource(cfg, kv, log)
	if err != nil {
		log.Fatal("Failed to create data source", zap.Error(err))
	}

	categories := catalog.NewProvider(cfg.CategoryFile, log)
	service := app.NewService(cfg, src, categories, log)

	hub := live.NewHub(log)
	categories.OnReload(hub.CategoriesUpdated)
	go func() {
		if err := categories.Watch(ctx); err != nil {
			log.Warn("Category definitions watcher stopped", zap.Error(err))
		}
	}()

	handler := handlers.NewHandler(service, pinger, cfg.DataSource, log)

	// Настраиваем маршруты
	router := mux.NewRouter()
	handler.Register(router)
	router.Handle("/ws", live.NewHandler(hub, service, cfg.AllowedOrigins, log))

	// Prometheus метрики
	router.Handle("/prometheus", promhttp.Handler())

	// pprof для профилирования
	router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      handlers.Wrap(router, cfg.AllowedOrigins, log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Server listening", zap.String("addr", cfg.ServerAddr))
		log.Info("Endpoints",
			zap.Strings("routes", []string{
				"GET /api/test",
				"GET /api/device-data/{participant}",
				"GET /api/dashboard/{participant}?date=&view=",
				"GET /api/readings/{participant}?date=&view=",
				"GET /api/baselines/{participant}?date=&view=",
				"GET /api/comparison/{participant}?date=&view=",
				"GET /api/categorize?name=",
				"GET /api/cost?kwh=",
				"GET /api/savings?previous=&current=",
				"GET /health",
				"GET /ws",
				"GET /prometheus",
			}),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	// Ожидаем сигнал завершения
	<-stop
	log.Info("Shutting down server...")

	// Останавливаем наблюдение за определениями
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if redisStore != nil {
		redisStore.Close()
	}

	log.Info("Server stopped")
}
