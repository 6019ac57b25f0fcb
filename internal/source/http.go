package source

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"energy-dashboard/internal/metrics"
	"energy-dashboard/internal/models"
)

// HTTPSource загружает датасеты с внешнего API /api/device-data/{participant}
type HTTPSource struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPSource создает клиент внешнего API. Повторы не выполняются.
func NewHTTPSource(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &HTTPSource{
		httpClient: client,
		logger:     logger,
	}
}

// FetchDataset получает датасет участника
func (s *HTTPSource) FetchDataset(ctx context.Context, participantID string) (ds *models.ParticipantDataset, err error) {
	defer func() { metrics.ObserveFetch("http", err) }()

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetPathParam("participant", participantID).
		Get("/api/device-data/{participant}")
	if err != nil {
		s.logger.Error("Device data request failed",
			zap.String("participant", participantID),
			zap.Error(err),
		)
		return nil, &FetchError{Participant: participantID, Err: err}
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, notFound(participantID)
	case resp.IsError():
		s.logger.Error("Device data API returned error",
			zap.String("participant", participantID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, &FetchError{Participant: participantID, StatusCode: resp.StatusCode()}
	}

	ds = models.NewParticipantDataset()
	if err := json.Unmarshal(resp.Body(), ds); err != nil {
		s.logger.Error("Failed to decode device data",
			zap.String("participant", participantID),
			zap.Error(err),
		)
		return nil, &FetchError{Participant: participantID, Err: err}
	}

	s.logger.Debug("Fetched device data",
		zap.String("participant", participantID),
		zap.Int("device_count", ds.Len()),
	)
	return ds, nil
}
