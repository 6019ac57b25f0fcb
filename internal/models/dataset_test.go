package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantDataset_UnmarshalKeepsOrder(t *testing.T) {
	raw := `{
		"tv": {"name": "Living Room TV", "hourly": {"data": [0.1, 0.2], "timestamps": ["2024-01-07T00:00:00", "2024-01-07T01:00:00"]}},
		"lamp": {"name": "Sonos Lamp", "hourly": {"data": [0, 1], "timestamps": ["2024-01-07 00:00:00", "2024-01-07 01:00:00"]}},
		"switch": {"name": "Nintendo Switch", "hourly": {"data": [0.5], "timestamps": ["2024-01-07T00:00:00Z"]}}
	}`

	var ds ParticipantDataset
	require.NoError(t, json.Unmarshal([]byte(raw), &ds))

	assert.Equal(t, []string{"tv", "lamp", "switch"}, ds.Keys())

	lamp, ok := ds.Get("lamp")
	require.True(t, ok)
	assert.Equal(t, "Sonos Lamp", lamp.Name)
	assert.Equal(t, []float64{0, 1}, lamp.Values)
	assert.Equal(t, time.Date(2024, 1, 7, 1, 0, 0, 0, time.UTC), lamp.Timestamps[1])
}

func TestParticipantDataset_MarshalRoundTripOrder(t *testing.T) {
	ds := NewParticipantDataset()
	ts := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	ds.Set("zeta", DeviceSeries{Name: "Zeta", Values: []float64{1}, Timestamps: []time.Time{ts}})
	ds.Set("alpha", DeviceSeries{Name: "Alpha", Values: []float64{2}, Timestamps: []time.Time{ts}})

	data, err := json.Marshal(ds)
	require.NoError(t, err)

	var decoded ParticipantDataset
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"zeta", "alpha"}, decoded.Keys())
}

func TestParticipantDataset_Validate(t *testing.T) {
	ts := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	ok := NewParticipantDataset()
	ok.Set("lamp", DeviceSeries{Name: "Lamp", Values: []float64{1}, Timestamps: []time.Time{ts}})
	assert.NoError(t, ok.Validate())

	mismatch := NewParticipantDataset()
	mismatch.Set("lamp", DeviceSeries{Name: "Lamp", Values: []float64{1, 2}, Timestamps: []time.Time{ts}})
	err := mismatch.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedDataset))
	assert.Contains(t, err.Error(), "Lamp")

	empty := NewParticipantDataset()
	empty.Set("lamp", DeviceSeries{Name: "Lamp"})
	assert.ErrorIs(t, empty.Validate(), ErrMalformedDataset)

	assert.ErrorIs(t, NewParticipantDataset().Validate(), ErrMalformedDataset)
}

func TestDeviceSeries_BadTimestamp(t *testing.T) {
	var s DeviceSeries
	err := json.Unmarshal([]byte(`{"name":"x","hourly":{"data":[1],"timestamps":["yesterday"]}}`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yesterday")
}

func TestReading_JSONFlatKeys(t *testing.T) {
	r := NewReading(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC))
	r.Values["lamp"] = 2
	r.ActiveHours["lamp"] = 2

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var flat map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "2024-01-07T00:00:00Z", flat["timestamp"])
	assert.Equal(t, 2.0, flat["lamp"])
	assert.Equal(t, 2.0, flat["lamp_active_hours"])

	var decoded Reading
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2.0, decoded.Value("lamp"))
	n, ok := decoded.Active("lamp")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestReadingKey(t *testing.T) {
	assert.Equal(t, "lamp", ReadingKey("Lamp"))
	assert.Equal(t, "living_room_tv", ReadingKey("  Living   Room TV "))
}

func TestTimeWindow_Intersect(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	w := TimeWindow{Start: day(7), End: day(13)}
	got := w.Intersect(TimeWindow{Start: day(10), End: day(20)})
	assert.Equal(t, day(10), got.Start)
	assert.Equal(t, day(13), got.End)
	assert.False(t, got.IsEmpty())

	none := w.Intersect(TimeWindow{Start: day(14), End: day(20)})
	assert.True(t, none.IsEmpty())

	assert.True(t, w.Contains(day(7)))
	assert.True(t, w.Contains(day(13)))
	assert.False(t, w.Contains(day(14)))
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("Week")
	require.NoError(t, err)
	assert.Equal(t, GranularityWeek, g)

	_, err = ParseGranularity("month")
	assert.Error(t, err)
}
