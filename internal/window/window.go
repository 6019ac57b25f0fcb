// Package window вычисляет временные окна дня и недели для выбранной даты
package window

import (
	"fmt"
	"time"

	"energy-dashboard/internal/models"
)

// endOfDayOffset конец дня: следующая полночь минус 1 мс (23:59:59.999)
const endOfDayOffset = time.Millisecond

// Midnight возвращает начало дня в зоне даты
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay возвращает 23:59:59.999 дня даты
func EndOfDay(t time.Time) time.Time {
	return Midnight(t).AddDate(0, 0, 1).Add(-endOfDayOffset)
}

// Resolve возвращает окно дня или недели (воскресенье..суббота) для даты
func Resolve(date time.Time, g models.Granularity) (models.TimeWindow, error) {
	switch g {
	case models.GranularityDay:
		return models.TimeWindow{Start: Midnight(date), End: EndOfDay(date)}, nil
	case models.GranularityWeek:
		sunday := Midnight(date).AddDate(0, 0, -int(date.Weekday()))
		return models.TimeWindow{Start: sunday, End: EndOfDay(sunday.AddDate(0, 0, 6))}, nil
	default:
		return models.TimeWindow{}, fmt.Errorf("unknown granularity %q", g)
	}
}

// PreviousPeriod сдвигает окно на день или неделю назад
func PreviousPeriod(w models.TimeWindow, g models.Granularity) (models.TimeWindow, error) {
	var days int
	switch g {
	case models.GranularityDay:
		days = 1
	case models.GranularityWeek:
		days = 7
	default:
		return models.TimeWindow{}, fmt.Errorf("unknown granularity %q", g)
	}
	return models.TimeWindow{
		Start: w.Start.AddDate(0, 0, -days),
		End:   w.End.AddDate(0, 0, -days),
	}, nil
}

// Clamp пересекает окно с фактическими границами датасета
func Clamp(w models.TimeWindow, min, max time.Time) models.TimeWindow {
	return w.Intersect(models.TimeWindow{Start: min, End: max})
}
