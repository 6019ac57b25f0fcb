// Package dashboard собирает снимок дашборда участника: показания за окно,
// итоги и стоимость по устройствам, базовые линии и сравнение с другими участниками
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"energy-dashboard/internal/analytics"
	"energy-dashboard/internal/catalog"
	"energy-dashboard/internal/cost"
	"energy-dashboard/internal/metrics"
	"energy-dashboard/internal/models"
	"energy-dashboard/internal/source"
	"energy-dashboard/internal/window"
)

var (
	// ErrInvalidQuery возвращается при некорректном запросе
	ErrInvalidQuery = errors.New("invalid query")
	// ErrMissingParameter возвращается, если обязательный аргумент не передан
	ErrMissingParameter = errors.New("missing required parameter")
)

// CategorizerSource отдает текущий категоризатор
type CategorizerSource interface {
	Current() *catalog.Categorizer
}

// Query запрос снимка дашборда
type Query struct {
	ParticipantID string
	Date          time.Time
	Granularity   models.Granularity
	// SkipPeers пропускает сравнение с другими участниками
	SkipPeers     bool
}

// Options параметры сервиса
type Options struct {
	// Peers участники, с которыми идет сравнение
	Peers          []string
	ClipPeerTotals bool
	HistoryDays    int
}

// DeviceSummary итоги устройства за окно
type DeviceSummary struct {
	Key             string                 `json:"key"`
	Name            string                 `json:"name"`
	Category        models.Category        `json:"category"`
	ConsumptionType models.ConsumptionType `json:"consumption_type"`
	TotalKwh        float64                `json:"total_kwh"`
	Cost            decimal.Decimal        `json:"cost"`
	CostLabel       string                 `json:"cost_label"`
	ActiveHours     int                    `json:"active_hours"`
	Insight         string                 `json:"insight"`
}

// PeriodComparison сравнение с предыдущим периодом той же длины
type PeriodComparison struct {
	Window   models.TimeWindow `json:"window"`
	TotalKwh float64           `json:"total_kwh"`
	Savings  models.Savings    `json:"savings"`
}

// Snapshot результат расчета дашборда
type Snapshot struct {
	ParticipantID   string                    `json:"participant_id"`
	View            models.Granularity        `json:"view"`
	Window          models.TimeWindow         `json:"window"`
	EffectiveWindow *models.TimeWindow        `json:"effective_window,omitempty"`
	Readings        []models.Reading          `json:"readings"`
	Devices         []DeviceSummary           `json:"devices"`
	TotalKwh        float64                   `json:"total_kwh"`
	TotalCost       decimal.Decimal           `json:"total_cost"`
	TotalCostLabel  string                    `json:"total_cost_label"`
	Baselines       models.Baselines          `json:"baselines"`
	Comparisons     []models.ComparisonResult `json:"comparisons"`
	ComparisonError string                    `json:"comparison_error,omitempty"`
	Previous        *PeriodComparison         `json:"previous,omitempty"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// Service рассчитывает снимки дашборда
type Service struct {
	source       source.DataSource
	categorizers CategorizerSource
	estimator    *cost.Estimator
	opts         Options
	logger       *zap.Logger
}

// NewService создает сервис дашборда
func NewService(src source.DataSource, categorizers CategorizerSource, estimator *cost.Estimator, opts Options, logger *zap.Logger) *Service {
	if estimator == nil {
		estimator = cost.NewEstimator(cost.DefaultUnitRate, cost.DefaultSymbol)
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = analytics.DefaultHistoryDays
	}
	return &Service{
		source:       src,
		categorizers: categorizers,
		estimator:    estimator,
		opts:         opts,
		logger:       logger,
	}
}

// Estimator возвращает калькулятор стоимости
func (s *Service) Estimator() *cost.Estimator {
	return s.estimator
}

// Categorizer возвращает текущий категоризатор
func (s *Service) Categorizer() *catalog.Categorizer {
	if s.categorizers == nil {
		return catalog.New(nil)
	}
	if c := s.categorizers.Current(); c != nil {
		return c
	}
	return catalog.New(nil)
}

// Dataset возвращает сырой датасет участника
func (s *Service) Dataset(ctx context.Context, participantID string) (*models.ParticipantDataset, error) {
	if participantID == "" {
		return nil, fmt.Errorf("%w: participant is required", ErrInvalidQuery)
	}
	return s.source.FetchDataset(ctx, participantID)
}

// Build загружает датасет и рассчитывает снимок за окно запроса.
// Ошибка сравнения с другими участниками не прерывает расчет: сравнения
// остаются пустыми, а причина попадает в ComparisonError.
func (s *Service) Build(ctx context.Context, q Query) (*Snapshot, error) {
	w, err := window.Resolve(q.Date, q.Granularity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	ds, err := s.Dataset(ctx, q.ParticipantID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	snap := s.compute(q, ds, w)
	metrics.AggregationLatency.WithLabelValues(string(q.Granularity)).Observe(time.Since(start).Seconds())

	if len(s.opts.Peers) > 0 && !q.SkipPeers {
		comparisons, err := analytics.ComparePeers(ctx, q.ParticipantID, ds, w, analytics.Peers{
			Fetcher:      s.source,
			IDs:          s.opts.Peers,
			ClipToWindow: s.opts.ClipPeerTotals,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("Peer comparison unavailable",
				zap.String("participant", q.ParticipantID),
				zap.Error(err),
			)
			snap.ComparisonError = err.Error()
		} else {
			snap.Comparisons = comparisons
		}
	}

	s.logger.Debug("Dashboard snapshot built",
		zap.String("participant", q.ParticipantID),
		zap.String("view", string(q.Granularity)),
		zap.Int("readings", len(snap.Readings)),
		zap.Int("comparisons", len(snap.Comparisons)),
	)
	return snap, nil
}

// compute выполняет чистую часть расчета над загруженным датасетом
func (s *Service) compute(q Query, ds *models.ParticipantDataset, w models.TimeWindow) *Snapshot {
	categorizer := s.Categorizer()

	// Почасовая таблица нужна для порогов активности и в недельном режиме
	hourly := analytics.BuildReadingTable(ds, w, models.GranularityDay)
	readings := hourly
	if q.Granularity == models.GranularityWeek {
		readings = analytics.AggregateDaily(hourly)
	}

	snap := &Snapshot{
		ParticipantID: q.ParticipantID,
		View:          q.Granularity,
		Window:        w,
		Readings:      readings,
		Devices:       []DeviceSummary{},
		Comparisons:   []models.ComparisonResult{},
		Baselines: analytics.ComputeBaselines(ds, w, q.Granularity, categorizer, analytics.BaselineOptions{
			HistoryDays: s.opts.HistoryDays,
		}),
		GeneratedAt: time.Now().UTC(),
	}
	if eff, ok := analytics.EffectiveWindow(ds, w); ok {
		snap.EffectiveWindow = &eff
	}

	seen := make(map[string]bool)
	ds.Each(func(key string, series models.DeviceSeries) {
		if series.Validate() != nil {
			return
		}
		info := categorizer.Categorize(series.Name)
		if info.Match == models.MatchFallback {
			metrics.CategorizerFallbacks.Inc()
			s.logger.Debug("Device fell back to Unknown category", zap.String("device", series.Name))
		}

		summary, err := SummarizeDevice(key, &series, &info, hourly, s.estimator)
		if err != nil || seen[summary.Key] {
			return
		}
		seen[summary.Key] = true
		snap.Devices = append(snap.Devices, summary)
		snap.TotalKwh += summary.TotalKwh
	})
	snap.TotalCost = s.estimator.EstimateCost(snap.TotalKwh)
	snap.TotalCostLabel = s.estimator.Format(snap.TotalCost)

	if prev, err := window.PreviousPeriod(w, q.Granularity); err == nil {
		prevReadings := analytics.BuildReadingTable(ds, prev, models.GranularityDay)
		if len(prevReadings) > 0 {
			var prevTotal float64
			for _, v := range analytics.Totals(prevReadings) {
				prevTotal += v
			}
			snap.Previous = &PeriodComparison{
				Window:   prev,
				TotalKwh: prevTotal,
				Savings:  s.estimator.CalculateSavings(prevTotal, snap.TotalKwh),
			}
		}
	}
	return snap
}

// SummarizeDevice считает итог, стоимость, активные часы и подсказку устройства
// по почасовой таблице. Все аргументы обязательны.
func SummarizeDevice(key string, series *models.DeviceSeries, info *models.CategoryInfo, hourly []models.Reading, estimator *cost.Estimator) (DeviceSummary, error) {
	switch {
	case series == nil:
		return DeviceSummary{}, fmt.Errorf("%w: deviceData", ErrMissingParameter)
	case key == "":
		return DeviceSummary{}, fmt.Errorf("%w: deviceKey", ErrMissingParameter)
	case info == nil:
		return DeviceSummary{}, fmt.Errorf("%w: deviceInfo", ErrMissingParameter)
	case estimator == nil:
		return DeviceSummary{}, fmt.Errorf("%w: estimator", ErrMissingParameter)
	}

	rk := analytics.DeviceKey(key, *series)
	var total float64
	for _, r := range hourly {
		total += r.Value(rk)
	}

	threshold := info.ActiveThreshold
	if threshold <= 0 {
		threshold = catalog.Threshold(info.Category)
	}
	active := analytics.CountActive(hourly, rk, threshold)

	tpl := info.InsightTemplate
	if tpl == "" {
		tpl = catalog.InsightTemplate(info.Category)
	}

	name := series.Name
	if name == "" {
		name = key
	}
	amount := estimator.EstimateCost(total)
	return DeviceSummary{
		Key:             rk,
		Name:            name,
		Category:        info.Category,
		ConsumptionType: info.ConsumptionType,
		TotalKwh:        total,
		Cost:            amount,
		CostLabel:       estimator.Format(amount),
		ActiveHours:     active,
		Insight:         catalog.FormatInsight(tpl, active, total),
	}, nil
}
