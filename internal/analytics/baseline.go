package analytics

import (
	"energy-dashboard/internal/catalog"
	"energy-dashboard/internal/models"
)

// DefaultHistoryDays предполагаемая длина истории датасета в днях
const DefaultHistoryDays = 30

// BaselineOptions параметры расчета исторического среднего
type BaselineOptions struct {
	// HistoryDays фиксированная длина истории; фактический охват данных не измеряется
	HistoryDays int
}

// DefaultBaselineOptions возвращает параметры по умолчанию
func DefaultBaselineOptions() BaselineOptions {
	return BaselineOptions{HistoryDays: DefaultHistoryDays}
}

// PeriodCount число исторических периодов без текущего: 29 дней или 30/7-1 недель
func PeriodCount(g models.Granularity, historyDays int) float64 {
	switch g {
	case models.GranularityWeek:
		return float64(historyDays)/7 - 1
	default:
		return float64(historyDays - 1)
	}
}

// ComputeBaselines сравнивает итоги текущего окна со средним по остальным данным.
// Ряды устройств разбираются по их собственным меткам, без выравнивания по опорному.
func ComputeBaselines(ds *models.ParticipantDataset, current models.TimeWindow, g models.Granularity, c *catalog.Categorizer, opts BaselineOptions) models.Baselines {
	if c == nil {
		c = catalog.New(nil)
	}
	if opts.HistoryDays == 0 {
		opts.HistoryDays = DefaultHistoryDays
	}

	deviceCurrent := make(map[string]float64)
	deviceHistory := make(map[string]float64)
	categoryCurrent := make(map[models.Category]float64)
	categoryHistory := make(map[models.Category]float64)
	inCurrent := make(map[string]bool)
	categoryInCurrent := make(map[models.Category]bool)

	ds.Each(func(key string, series models.DeviceSeries) {
		if series.Validate() != nil {
			return
		}
		dk := DeviceKey(key, series)
		category := c.Categorize(series.Name).Category

		for i, ts := range series.Timestamps {
			v := series.Values[i]
			if current.Contains(ts) {
				deviceCurrent[dk] += v
				categoryCurrent[category] += v
				inCurrent[dk] = true
				categoryInCurrent[category] = true
			} else {
				deviceHistory[dk] += v
				categoryHistory[category] += v
			}
		}
	})

	periods := PeriodCount(g, opts.HistoryDays)
	out := models.Baselines{
		Devices:    make(map[string]models.Baseline, len(inCurrent)),
		Categories: make(map[models.Category]models.Baseline, len(categoryInCurrent)),
	}
	for dk := range inCurrent {
		out.Devices[dk] = baseline(deviceCurrent[dk], deviceHistory[dk], periods)
	}
	for cat := range categoryInCurrent {
		out.Categories[cat] = baseline(categoryCurrent[cat], categoryHistory[cat], periods)
	}
	return out
}

func baseline(current, history, periods float64) models.Baseline {
	var average float64
	if periods > 0 {
		average = history / periods
	}
	return models.Baseline{
		Current:       current,
		Average:       average,
		PercentChange: roundHalfUp(percentChange(current, average)),
	}
}
