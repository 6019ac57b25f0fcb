// Package handlers содержит HTTP обработчики для API
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"energy-dashboard/internal/catalog"
	"energy-dashboard/internal/cost"
	"energy-dashboard/internal/dashboard"
	"energy-dashboard/internal/metrics"
	"energy-dashboard/internal/models"
	"energy-dashboard/internal/source"
)

// DashboardService операции дашборда, доступные обработчикам
type DashboardService interface {
	Dataset(ctx context.Context, participantID string) (*models.ParticipantDataset, error)
	Build(ctx context.Context, q dashboard.Query) (*dashboard.Snapshot, error)
	Categorizer() *catalog.Categorizer
	Estimator() *cost.Estimator
}

// Pinger проверяет доступность кэша
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler содержит зависимости для HTTP обработчиков
type Handler struct {
	service    DashboardService
	cache      Pinger
	sourceName string
	logger     *zap.Logger
	now        func() time.Time
	startTime  time.Time
}

// NewHandler создает новый обработчик; cache может быть nil
func NewHandler(service DashboardService, cache Pinger, sourceName string, logger *zap.Logger) *Handler {
	return &Handler{
		service:    service,
		cache:      cache,
		sourceName: sourceName,
		logger:     logger,
		now:        time.Now,
		startTime:  time.Now(),
	}
}

// Register регистрирует маршруты API
func (h *Handler) Register(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/test", h.TestHandler).Methods(http.MethodGet)
	api.HandleFunc("/device-data/{participant}", h.DeviceDataHandler).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/{participant}", h.DashboardHandler).Methods(http.MethodGet)
	api.HandleFunc("/readings/{participant}", h.ReadingsHandler).Methods(http.MethodGet)
	api.HandleFunc("/baselines/{participant}", h.BaselinesHandler).Methods(http.MethodGet)
	api.HandleFunc("/comparison/{participant}", h.ComparisonHandler).Methods(http.MethodGet)
	api.HandleFunc("/categorize", h.CategorizeHandler).Methods(http.MethodGet)
	api.HandleFunc("/cost", h.CostHandler).Methods(http.MethodGet)
	api.HandleFunc("/savings", h.SavingsHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
}

// TestHandler обрабатывает GET /api/test - проверка доступности API
func (h *Handler) TestHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, map[string]string{"message": "API is working"}, http.StatusOK)
}

// DeviceDataHandler обрабатывает GET /api/device-data/{participant} - сырой датасет
func (h *Handler) DeviceDataHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/device-data"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	ds, err := h.service.Dataset(r.Context(), mux.Vars(r)["participant"])
	if err != nil {
		h.fail(w, r, endpoint, err)
		return
	}

	h.record(endpoint, r.Method, http.StatusOK)
	h.respondJSON(w, ds, http.StatusOK)
}

// DashboardHandler обрабатывает GET /api/dashboard/{participant} - полный снимок
func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/dashboard"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	snap, ok := h.snapshot(w, r, endpoint, true)
	if !ok {
		return
	}

	h.record(endpoint, r.Method, http.StatusOK)
	h.respondJSON(w, snap, http.StatusOK)
}

// ReadingsHandler обрабатывает GET /api/readings/{participant} - таблица показаний
func (h *Handler) ReadingsHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/readings"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	snap, ok := h.snapshot(w, r, endpoint, false)
	if !ok {
		return
	}

	response := map[string]interface{}{
		"participant_id":   snap.ParticipantID,
		"view":             snap.View,
		"window":           snap.Window,
		"effective_window": snap.EffectiveWindow,
		"readings":         snap.Readings,
	}

	h.record(endpoint, r.Method, http.StatusOK)
	h.respondJSON(w, response, http.StatusOK)
}

// BaselinesHandler обрабатывает GET /api/baselines/{participant} - сравнение с историей
func (h *Handler) BaselinesHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/baselines"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	snap, ok := h.snapshot(w, r, endpoint, false)
	if !ok {
		return
	}

	h.record(endpoint, r.Method, http.StatusOK)
	h.respondJSON(w, snap.Baselines, http.StatusOK)
}

// ComparisonHandler обрабатывает GET /api/comparison/{participant} - сравнение с другими участниками
func (h *Handler) ComparisonHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/comparison"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
	defer timer.ObserveDuration()

	snap, ok := h.snapshot(w, r, endpoint, true)
	if !ok {
		return
	}
	if snap.ComparisonError != "" {
		h.record(endpoint, r.Method, http.StatusBadGateway)
		h.respondError(w, "Peer data unavailable: "+snap.ComparisonError, http.StatusBadGateway)
		return
	}

	h.record(endpoint, r.Method, http.StatusOK)
	h.respondJSON(w, snap.Comparisons, http.StatusOK)
}

// CategorizeHandler обрабатывает GET /api/categorize?name= - категория устройства
func (h *Handler) CategorizeHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/categorize"
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.record(endpoint, r.Method, http.StatusBadRequest)
		h.respondError(w, "Query parameter 'name' is required", http.StatusBadRequest)
		return
	}

	info := h.service.Categorizer().Categorize(name)
	if info.Match == models.MatchFallback {
		metrics.CategorizerFallbacks.Inc()
	}

	h.record(endpoint, r.Method, http.StatusOK)
	h.respondJSON(w, info, http.StatusOK)
}

// CostHandler обрабатывает GET /api/cost?kwh= - стоимость энергии
func (h *Handler) CostHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/cost"
	kwh, err := parseFloatParam(r, "kwh")
	if err != nil {
		h.record(endpoint, r.Method, http.StatusBadRequest)
		h.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	est := h.service.Estimator()
	amount := est.EstimateCost(kwh)
	response := map[string]interface{}{
		"kwh":       kwh,
		"unit_rate": est.UnitRate(),
		"cost":      amount,
		"formatted": est.Format(amount),
	}

	h.record(endpoint, r.Method, http.StatusOK)
	h.respondJSON(w, response, http.StatusOK)
}

// SavingsHandler обрабатывает GET /api/savings?previous=&current= - экономия между периодами
func (h *Handler) SavingsHandler(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/savings"
	previous, err := parseFloatParam(r, "previous")
	if err == nil {
		var current float64
		if current, err = parseFloatParam(r, "current"); err == nil {
			est := h.service.Estimator()
			savings := est.CalculateSavings(previous, current)
			h.record(endpoint, r.Method, http.StatusOK)
			h.respondJSON(w, struct {
				models.Savings
				Formatted string `json:"formatted"`
			}{savings, est.Format(savings.CostDifference)}, http.StatusOK)
			return
		}
	}

	h.record(endpoint, r.Method, http.StatusBadRequest)
	h.respondError(w, err.Error(), http.StatusBadRequest)
}

// HealthHandler обрабатывает GET /health - проверка здоровья
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	redisStatus := "disabled"
	if h.cache != nil {
		redisStatus = "connected"
		if err := h.cache.Ping(r.Context()); err != nil {
			redisStatus = "disconnected"
		}
	}

	status := models.HealthStatus{
		Status:    "healthy",
		Timestamp: h.now(),
		Redis:     redisStatus,
		Source:    h.sourceName,
		Uptime:    time.Since(h.startTime).String(),
	}

	h.respondJSON(w, status, http.StatusOK)
}

// snapshot разбирает запрос и строит снимок; при ошибке ответ уже отправлен
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request, endpoint string, withPeers bool) (*dashboard.Snapshot, bool) {
	q, err := dashboard.ParseQuery(mux.Vars(r)["participant"], r.URL.Query().Get("date"), r.URL.Query().Get("view"), h.now())
	if err != nil {
		h.fail(w, r, endpoint, err)
		return nil, false
	}
	q.SkipPeers = !withPeers

	snap, err := h.service.Build(r.Context(), q)
	if err != nil {
		h.fail(w, r, endpoint, err)
		return nil, false
	}
	return snap, true
}

// queryError ошибка разбора параметров запроса
type queryError struct{ msg string }

func (e *queryError) Error() string { return e.msg }

func (e *queryError) Unwrap() error { return dashboard.ErrInvalidQuery }

func invalid(msg string) error {
	return &queryError{msg: msg}
}

func parseFloatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, invalid("query parameter '" + name + "' is required")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, invalid("query parameter '" + name + "' must be a number")
	}
	return v.InexactFloat64(), nil
}

// fail переводит ошибку в HTTP статус
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("endpoint", endpoint),
			zap.String("request_id", w.Header().Get(RequestIDHeader)),
			zap.Error(err),
		)
	}
	h.record(endpoint, r.Method, status)
	h.respondError(w, message, status)
}

func statusFor(err error) (int, string) {
	var fetchErr *source.FetchError
	switch {
	case errors.Is(err, source.ErrParticipantNotFound):
		return http.StatusNotFound, "Participant not found"
	case errors.Is(err, dashboard.ErrInvalidQuery):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, "Failed to fetch participant data"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Upstream timed out"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (h *Handler) record(endpoint, method string, status int) {
	metrics.RequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
}

// respondJSON отправляет JSON ответ
func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError отправляет ошибку в JSON формате
func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
