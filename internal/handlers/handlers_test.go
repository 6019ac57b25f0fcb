package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energy-dashboard/internal/cost"
	"energy-dashboard/internal/dashboard"
	"energy-dashboard/internal/models"
	"energy-dashboard/internal/source"
)

type fakeSource map[string]*models.ParticipantDataset

func (f fakeSource) FetchDataset(ctx context.Context, id string) (*models.ParticipantDataset, error) {
	if id == "DOWN" {
		return nil, &source.FetchError{Participant: id, StatusCode: http.StatusServiceUnavailable}
	}
	ds, ok := f[id]
	if !ok {
		return nil, errors.New("participant not found: " + id)
	}
	return ds, nil
}

// notFoundSource maps unknown ids to ErrParticipantNotFound
type notFoundSource struct{ fakeSource }

func (s notFoundSource) FetchDataset(ctx context.Context, id string) (*models.ParticipantDataset, error) {
	if _, ok := s.fakeSource[id]; !ok && id != "DOWN" {
		return nil, source.ErrParticipantNotFound
	}
	return s.fakeSource.FetchDataset(ctx, id)
}

func hourly(name string, days int, v float64) models.DeviceSeries {
	start := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	s := models.DeviceSeries{Name: name}
	for i := 0; i < days*24; i++ {
		s.Timestamps = append(s.Timestamps, start.Add(time.Duration(i)*time.Hour))
		s.Values = append(s.Values, v)
	}
	return s
}

// recordingSource remembers which participants were fetched
type recordingSource struct {
	next    source.DataSource
	mu      sync.Mutex
	fetched []string
}

func (s *recordingSource) FetchDataset(ctx context.Context, id string) (*models.ParticipantDataset, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, id)
	s.mu.Unlock()
	return s.next.FetchDataset(ctx, id)
}

func testSource() source.DataSource {
	p0 := models.NewParticipantDataset()
	p0.Set("tv", hourly("Living Room TV", 7, 0.05))
	p0.Set("lamp", hourly("Lamp", 7, 0.02))
	p1 := models.NewParticipantDataset()
	p1.Set("tv", hourly("Living Room TV", 7, 0.1))
	return notFoundSource{fakeSource{"P0": p0, "P1": p1}}
}

func newTestRouter(t *testing.T, peers []string) http.Handler {
	t.Helper()
	return routerFor(t, testSource(), peers)
}

func routerFor(t *testing.T, src source.DataSource, peers []string) http.Handler {
	t.Helper()
	svc := dashboard.NewService(src, nil,
		cost.NewEstimator(cost.DefaultUnitRate, cost.DefaultSymbol),
		dashboard.Options{Peers: peers},
		zap.NewNop(),
	)

	h := NewHandler(svc, nil, "test", zap.NewNop())
	router := mux.NewRouter()
	h.Register(router)
	return Wrap(router, []string{"http://localhost:5173"}, zap.NewNop())
}

func get(t *testing.T, handler http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func TestTestHandler(t *testing.T) {
	rec := get(t, newTestRouter(t, nil), "/api/test")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "API is working", body["message"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestDeviceDataHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(t, router, "/api/device-data/P0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Less(t, strings.Index(rec.Body.String(), `"tv"`), strings.Index(rec.Body.String(), `"lamp"`))

	ds := models.NewParticipantDataset()
	decode(t, rec, ds)
	assert.Equal(t, []string{"tv", "lamp"}, ds.Keys())

	rec = get(t, router, "/api/device-data/P9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "Participant not found", body["error"])

	rec = get(t, router, "/api/device-data/DOWN")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDashboardHandler_Week(t *testing.T) {
	rec := get(t, newTestRouter(t, []string{"P0", "P1"}), "/api/dashboard/P0?date=2024-01-10&view=week")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap struct {
		View        string                    `json:"view"`
		Readings    []models.Reading          `json:"readings"`
		Comparisons []models.ComparisonResult `json:"comparisons"`
		Devices     []dashboard.DeviceSummary `json:"devices"`
	}
	decode(t, rec, &snap)
	assert.Equal(t, "week", snap.View)
	assert.Len(t, snap.Readings, 7)
	assert.Len(t, snap.Devices, 2)
	require.Len(t, snap.Comparisons, 1)
	assert.True(t, snap.Comparisons[0].IsLowerThanAverage)
}

func TestReadingsHandler_FlatReadings(t *testing.T) {
	rec := get(t, newTestRouter(t, nil), "/api/readings/P0?date=2024-01-07&view=day")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Readings []map[string]interface{} `json:"readings"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Readings, 24)
	assert.Contains(t, body.Readings[0], "living_room_tv")
	assert.Contains(t, body.Readings[0], "living_room_tv_active_hours")
	assert.Contains(t, body.Readings[0], "timestamp")
}

func TestQueryValidation(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, url := range []string{
		"/api/readings/P0?date=yesterday",
		"/api/readings/P0?view=month",
		"/api/categorize",
		"/api/cost?kwh=abc",
		"/api/savings?previous=1",
	} {
		rec := get(t, router, url)
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
}

func TestBaselinesHandler(t *testing.T) {
	rec := get(t, newTestRouter(t, nil), "/api/baselines/P0?date=2024-01-08")
	require.Equal(t, http.StatusOK, rec.Code)

	var b models.Baselines
	decode(t, rec, &b)
	assert.Contains(t, b.Devices, "lamp")
	assert.Contains(t, b.Categories, models.CategoryEntertainment)
}

func TestComparisonHandler_PeerFailure(t *testing.T) {
	rec := get(t, newTestRouter(t, []string{"P0", "DOWN"}), "/api/comparison/P0?date=2024-01-08")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestReadingsAndBaselines_SkipPeerFetches(t *testing.T) {
	src := &recordingSource{next: testSource()}
	router := routerFor(t, src, []string{"P0", "P1", "DOWN"})

	for _, url := range []string{
		"/api/readings/P0?date=2024-01-08",
		"/api/baselines/P0?date=2024-01-08",
	} {
		rec := get(t, router, url)
		assert.Equal(t, http.StatusOK, rec.Code, url)
	}
	assert.Equal(t, []string{"P0", "P0"}, src.fetched)

	rec := get(t, router, "/api/dashboard/P0?date=2024-01-08")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, src.fetched, "DOWN")
}

func TestCategorizeHandler(t *testing.T) {
	rec := get(t, newTestRouter(t, nil), "/api/categorize?name=Living%20Room%20TV")
	require.Equal(t, http.StatusOK, rec.Code)

	var info models.CategoryInfo
	decode(t, rec, &info)
	assert.Equal(t, models.CategoryEntertainment, info.Category)
}

func TestCostAndSavingsHandlers(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(t, router, "/api/cost?kwh=10")
	require.Equal(t, http.StatusOK, rec.Code)
	var c map[string]interface{}
	decode(t, rec, &c)
	assert.Equal(t, "2.703", c["cost"])
	assert.Equal(t, "£2.70", c["formatted"])

	rec = get(t, router, "/api/savings?previous=10&current=8")
	require.Equal(t, http.StatusOK, rec.Code)
	var s map[string]interface{}
	decode(t, rec, &s)
	assert.Equal(t, 20.0, s["percent_change"])
	assert.Equal(t, true, s["is_saving"])
	assert.Equal(t, "£0.54", s["formatted"])
}

func TestHealthHandler(t *testing.T) {
	rec := get(t, newTestRouter(t, nil), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.HealthStatus
	decode(t, rec, &status)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "disabled", status.Redis)
	assert.Equal(t, "test", status.Source)
}

func TestWrap_CORSAndRequestID(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set(RequestIDHeader, "fixed-id")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "fixed-id", rec.Header().Get(RequestIDHeader))
}
