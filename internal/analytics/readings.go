package analytics

import (
	"sort"
	"time"

	"energy-dashboard/internal/models"
	"energy-dashboard/internal/window"
)

// DeviceKey возвращает ключ устройства в строках показаний
func DeviceKey(datasetKey string, series models.DeviceSeries) string {
	if series.Name != "" {
		return models.ReadingKey(series.Name)
	}
	return models.ReadingKey(datasetKey)
}

// referenceSeries первое устройство датасета задает сетку временных меток
func referenceSeries(ds *models.ParticipantDataset) (models.DeviceSeries, bool) {
	keys := ds.Keys()
	if len(keys) == 0 {
		return models.DeviceSeries{}, false
	}
	return ds.Get(keys[0])
}

// Boundaries возвращает минимальную и максимальную метку опорного устройства
func Boundaries(ds *models.ParticipantDataset) (min, max time.Time, ok bool) {
	ref, ok := referenceSeries(ds)
	if !ok || len(ref.Timestamps) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max = ref.Timestamps[0], ref.Timestamps[0]
	for _, ts := range ref.Timestamps[1:] {
		if ts.Before(min) {
			min = ts
		}
		if ts.After(max) {
			max = ts
		}
	}
	return min, max, true
}

// EffectiveWindow пересекает запрошенное окно с границами датасета
func EffectiveWindow(ds *models.ParticipantDataset, w models.TimeWindow) (models.TimeWindow, bool) {
	min, max, ok := Boundaries(ds)
	if !ok {
		return models.TimeWindow{}, false
	}
	eff := window.Clamp(w, min, max)
	return eff, !eff.IsEmpty()
}

// BuildReadingTable строит таблицу показаний за окно.
// Устройства соединяются по индексу: все ряды считаются выровненными
// по сетке опорного (первого) устройства. Поврежденный датасет дает пустую таблицу.
func BuildReadingTable(ds *models.ParticipantDataset, w models.TimeWindow, g models.Granularity) []models.Reading {
	if ds.Validate() != nil {
		return []models.Reading{}
	}
	eff, ok := EffectiveWindow(ds, w)
	if !ok {
		return []models.Reading{}
	}

	hourly := buildHourly(ds, eff)
	if g == models.GranularityWeek {
		return AggregateDaily(hourly)
	}
	markActiveHours(hourly)
	return hourly
}

// buildHourly выбирает индексы опорного ряда внутри окна
func buildHourly(ds *models.ParticipantDataset, eff models.TimeWindow) []models.Reading {
	ref, _ := referenceSeries(ds)

	readings := make([]models.Reading, 0, len(ref.Timestamps))
	for i, ts := range ref.Timestamps {
		if !eff.Contains(ts) {
			continue
		}
		r := models.NewReading(ts)
		ds.Each(func(key string, series models.DeviceSeries) {
			var v float64
			if i < len(series.Values) {
				v = series.Values[i]
			}
			r.Values[DeviceKey(key, series)] += v
		})
		readings = append(readings, r)
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
	return readings
}

// AggregateDaily группирует почасовые строки по календарному дню UTC.
// Активный час здесь: любое значение > 0, без порога категории.
func AggregateDaily(hourly []models.Reading) []models.Reading {
	byDay := make(map[time.Time]*models.Reading)
	days := make([]time.Time, 0)

	for _, h := range hourly {
		y, m, d := h.Timestamp.UTC().Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

		agg, ok := byDay[day]
		if !ok {
			r := models.NewReading(day)
			agg = &r
			byDay[day] = agg
			days = append(days, day)
		}

		for k, v := range h.Values {
			agg.Values[k] += v
			if v > 0 {
				agg.ActiveHours[k]++
			} else if _, ok := agg.ActiveHours[k]; !ok {
				agg.ActiveHours[k] = 0
			}
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]models.Reading, 0, len(days))
	for _, day := range days {
		out = append(out, *byDay[day])
	}
	return out
}

// markActiveHours дописывает счетчик 0/1 для почасовых строк
func markActiveHours(readings []models.Reading) {
	for _, r := range readings {
		for k, v := range r.Values {
			if _, ok := r.ActiveHours[k]; ok {
				continue
			}
			if v > 0 {
				r.ActiveHours[k] = 1
			} else {
				r.ActiveHours[k] = 0
			}
		}
	}
}

// Totals суммирует значения каждого устройства по таблице
func Totals(readings []models.Reading) map[string]float64 {
	totals := make(map[string]float64)
	for _, r := range readings {
		for k, v := range r.Values {
			totals[k] += v
		}
	}
	return totals
}

// CountActive считает строки, где значение устройства выше порога
func CountActive(readings []models.Reading, key string, threshold float64) int {
	n := 0
	for _, r := range readings {
		if r.Values[key] > threshold {
			n++
		}
	}
	return n
}
