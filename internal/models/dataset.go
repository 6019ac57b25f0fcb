// Package models содержит структуры данных датасетов участников, строк показаний и результатов аналитики
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedDataset возвращается, если датасет устройства поврежден
var ErrMalformedDataset = errors.New("malformed dataset")

// timestampLayouts допустимые форматы временных меток (без зоны трактуются как UTC)
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// DeviceSeries сырые почасовые данные одного устройства
type DeviceSeries struct {
	Name       string
	Values     []float64
	Timestamps []time.Time
}

// deviceSeriesWire формат устройства в ответе API
type deviceSeriesWire struct {
	Name   string `json:"name"`
	Hourly struct {
		Data       []float64 `json:"data"`
		Timestamps []string  `json:"timestamps"`
	} `json:"hourly"`
}

// Total возвращает сумму всех значений ряда
func (s DeviceSeries) Total() float64 {
	var total float64
	for _, v := range s.Values {
		total += v
	}
	return total
}

// Validate проверяет соответствие значений и временных меток
func (s DeviceSeries) Validate() error {
	if len(s.Values) == 0 || len(s.Timestamps) == 0 {
		return fmt.Errorf("%w: device %q has no hourly data", ErrMalformedDataset, s.Name)
	}
	if len(s.Values) != len(s.Timestamps) {
		return fmt.Errorf("%w: device %q has %d values but %d timestamps",
			ErrMalformedDataset, s.Name, len(s.Values), len(s.Timestamps))
	}
	return nil
}

// MarshalJSON сериализует ряд в формат {name, hourly: {data, timestamps}}
func (s DeviceSeries) MarshalJSON() ([]byte, error) {
	var w deviceSeriesWire
	w.Name = s.Name
	w.Hourly.Data = s.Values
	if w.Hourly.Data == nil {
		w.Hourly.Data = []float64{}
	}
	w.Hourly.Timestamps = make([]string, len(s.Timestamps))
	for i, ts := range s.Timestamps {
		w.Hourly.Timestamps[i] = ts.Format(time.RFC3339)
	}
	return json.Marshal(w)
}

// UnmarshalJSON разбирает ряд из формата API
func (s *DeviceSeries) UnmarshalJSON(data []byte) error {
	var w deviceSeriesWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	timestamps := make([]time.Time, 0, len(w.Hourly.Timestamps))
	for _, raw := range w.Hourly.Timestamps {
		ts, err := ParseTimestamp(raw)
		if err != nil {
			return fmt.Errorf("device %q: %w", w.Name, err)
		}
		timestamps = append(timestamps, ts)
	}

	s.Name = w.Name
	s.Values = w.Hourly.Data
	s.Timestamps = timestamps
	return nil
}

// ParseTimestamp разбирает ISO-8601 временную метку
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", raw)
}

// ParticipantDataset упорядоченное отображение ключа устройства в его ряд
type ParticipantDataset struct {
	keys    []string
	devices map[string]DeviceSeries
}

// NewParticipantDataset создает пустой датасет
func NewParticipantDataset() *ParticipantDataset {
	return &ParticipantDataset{devices: make(map[string]DeviceSeries)}
}

// Set добавляет или заменяет устройство, сохраняя порядок первого добавления
func (d *ParticipantDataset) Set(key string, series DeviceSeries) {
	if d.devices == nil {
		d.devices = make(map[string]DeviceSeries)
	}
	if _, ok := d.devices[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.devices[key] = series
}

// Get возвращает ряд устройства по ключу
func (d *ParticipantDataset) Get(key string) (DeviceSeries, bool) {
	if d == nil {
		return DeviceSeries{}, false
	}
	s, ok := d.devices[key]
	return s, ok
}

// Keys возвращает ключи устройств в порядке добавления
func (d *ParticipantDataset) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Len возвращает количество устройств
func (d *ParticipantDataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Each обходит устройства в порядке добавления
func (d *ParticipantDataset) Each(fn func(key string, series DeviceSeries)) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		fn(k, d.devices[k])
	}
}

// Validate проверяет, что каждое устройство имеет согласованные данные
func (d *ParticipantDataset) Validate() error {
	if d.Len() == 0 {
		return fmt.Errorf("%w: no devices", ErrMalformedDataset)
	}
	for _, k := range d.keys {
		if err := d.devices[k].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON сериализует датасет, сохраняя порядок устройств
func (d *ParticipantDataset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		series, err := json.Marshal(d.devices[k])
		if err != nil {
			return nil, err
		}
		buf.Write(series)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON разбирает датасет, сохраняя порядок ключей объекта
func (d *ParticipantDataset) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected JSON object", ErrMalformedDataset)
	}

	ds := NewParticipantDataset()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: unexpected token %v", ErrMalformedDataset, tok)
		}
		var series DeviceSeries
		if err := dec.Decode(&series); err != nil {
			return fmt.Errorf("device %q: %w", key, err)
		}
		ds.Set(key, series)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = *ds
	return nil
}
