// Package metrics реализует экспорт метрик в Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики
var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_dashboard_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	// RequestDuration длительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "energy_dashboard_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"endpoint", "method"},
	)

	// DatasetFetches количество загрузок датасетов по источнику и результату
	DatasetFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energy_dashboard_dataset_fetches_total",
			Help: "Total number of participant dataset fetches",
		},
		[]string{"source", "result"},
	)

	// CacheHits попадания в кэш
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "energy_dashboard_cache_hits_total",
			Help: "Total number of dataset cache hits",
		},
	)

	// CacheMisses промахи кэша
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "energy_dashboard_cache_misses_total",
			Help: "Total number of dataset cache misses",
		},
	)

	// AggregationLatency время построения снимка дашборда
	AggregationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "energy_dashboard_aggregation_latency_seconds",
			Help:    "Dashboard snapshot computation latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		},
		[]string{"view"},
	)

	// SupersededRequests результаты, отброшенные из-за более нового запроса
	SupersededRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "energy_dashboard_superseded_requests_total",
			Help: "Total number of dashboard results discarded as stale",
		},
	)

	// LiveConnections количество активных websocket-подключений
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "energy_dashboard_live_connections",
			Help: "Number of active live view connections",
		},
	)

	// CategorizerFallbacks устройства, для которых не нашлось категории
	CategorizerFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "energy_dashboard_categorizer_fallbacks_total",
			Help: "Total number of device names resolved to the Unknown category",
		},
	)
)

// ObserveFetch учитывает результат загрузки датасета
func ObserveFetch(source string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	DatasetFetches.WithLabelValues(source, result).Inc()
}
