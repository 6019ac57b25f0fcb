package dashboard

import (
	"fmt"
	"time"

	"energy-dashboard/internal/models"
)

// ParseQuery собирает запрос из строковых параметров.
// Пустой вид означает день, пустая дата означает now (UTC).
func ParseQuery(participant, date, view string, now time.Time) (Query, error) {
	q := Query{ParticipantID: participant, Granularity: models.GranularityDay}

	if view != "" {
		g, err := models.ParseGranularity(view)
		if err != nil {
			return q, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		q.Granularity = g
	}

	if date == "" {
		q.Date = now.UTC()
		return q, nil
	}
	if d, err := time.Parse("2006-01-02", date); err == nil {
		q.Date = d
		return q, nil
	}
	ts, err := models.ParseTimestamp(date)
	if err != nil {
		return q, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrInvalidQuery, date)
	}
	q.Date = ts
	return q, nil
}
