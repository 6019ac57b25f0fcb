package models

import (
	"fmt"
	"strings"
	"time"
)

// Granularity уровень агрегации: день или неделя
type Granularity string

const (
	// GranularityDay почасовые строки за один день
	GranularityDay Granularity = "day"
	// GranularityWeek дневные строки за неделю
	GranularityWeek Granularity = "week"
)

// ParseGranularity разбирает значение параметра view
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case GranularityDay:
		return GranularityDay, nil
	case GranularityWeek:
		return GranularityWeek, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (want day or week)", s)
	}
}

// TimeWindow интервал времени с включенными границами
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains проверяет попадание момента в окно
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// IsEmpty возвращает true, если начало окна позже конца
func (w TimeWindow) IsEmpty() bool {
	return w.End.Before(w.Start)
}

// Intersect возвращает пересечение двух окон (может быть пустым)
func (w TimeWindow) Intersect(o TimeWindow) TimeWindow {
	out := w
	if o.Start.After(out.Start) {
		out.Start = o.Start
	}
	if o.End.Before(out.End) {
		out.End = o.End
	}
	return out
}
