package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ActiveHoursSuffix суффикс ключа счетчика активных часов устройства
const ActiveHoursSuffix = "_active_hours"

// ReadingKey нормализует имя устройства в ключ строки показаний
func ReadingKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// Reading одна выровненная строка показаний всех устройств
type Reading struct {
	Timestamp   time.Time
	Values      map[string]float64
	ActiveHours map[string]int
}

// NewReading создает пустую строку показаний
func NewReading(ts time.Time) Reading {
	return Reading{
		Timestamp:   ts,
		Values:      make(map[string]float64),
		ActiveHours: make(map[string]int),
	}
}

// Value возвращает значение устройства (0, если его нет)
func (r Reading) Value(key string) float64 {
	return r.Values[key]
}

// Active возвращает счетчик активных часов устройства
func (r Reading) Active(key string) (int, bool) {
	n, ok := r.ActiveHours[key]
	return n, ok
}

// Total возвращает сумму значений всех устройств в строке
func (r Reading) Total() float64 {
	var total float64
	for _, v := range r.Values {
		total += v
	}
	return total
}

// MarshalJSON сериализует строку в плоский объект
func (r Reading) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, 1+len(r.Values)+len(r.ActiveHours))
	flat["timestamp"] = r.Timestamp.Format(time.RFC3339)
	for k, v := range r.Values {
		flat[k] = v
	}
	for k, n := range r.ActiveHours {
		flat[k+ActiveHoursSuffix] = n
	}
	return json.Marshal(flat)
}

// UnmarshalJSON разбирает плоский объект строки показаний
func (r *Reading) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	out := NewReading(time.Time{})
	for k, raw := range flat {
		switch {
		case k == "timestamp":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("timestamp: %w", err)
			}
			ts, err := ParseTimestamp(s)
			if err != nil {
				return err
			}
			out.Timestamp = ts
		case strings.HasSuffix(k, ActiveHoursSuffix):
			var n int
			if err := json.Unmarshal(raw, &n); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			out.ActiveHours[strings.TrimSuffix(k, ActiveHoursSuffix)] = n
		default:
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			out.Values[k] = v
		}
	}

	*r = out
	return nil
}
