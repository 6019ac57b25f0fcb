package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"energy-dashboard/internal/models"
)

// DatasetFetcher источник датасетов участников
type DatasetFetcher interface {
	FetchDataset(ctx context.Context, participantID string) (*models.ParticipantDataset, error)
}

// Peers описывает, с кем сравнивать участника
type Peers struct {
	Fetcher DatasetFetcher
	IDs     []string
	// ClipToWindow ограничивает итоги окном; по умолчанию суммируется весь ряд
	ClipToWindow bool
}

// deviceTotal итог устройства с сохранением порядка датасета
type deviceTotal struct {
	key   string
	name  string
	total float64
}

// ComparePeers сравнивает итоги устройств участника со средним по другим участникам.
// Устройства без данных у других участников в результат не попадают.
func ComparePeers(ctx context.Context, participantID string, ds *models.ParticipantDataset, w models.TimeWindow, peers Peers) ([]models.ComparisonResult, error) {
	own := deviceTotals(ds, w, peers.ClipToWindow)
	if len(own) == 0 {
		return []models.ComparisonResult{}, nil
	}

	ids := make([]string, 0, len(peers.IDs))
	for _, id := range peers.IDs {
		if id != participantID {
			ids = append(ids, id)
		}
	}

	peerData := make([]*models.ParticipantDataset, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			data, err := peers.Fetcher.FetchDataset(gctx, id)
			if err != nil {
				return fmt.Errorf("peer %s: %w", id, err)
			}
			peerData[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, data := range peerData {
		for _, t := range deviceTotals(data, w, peers.ClipToWindow) {
			sums[t.key] += t.total
			counts[t.key]++
		}
	}

	results := make([]models.ComparisonResult, 0, len(own))
	for _, t := range own {
		n := counts[t.key]
		if n == 0 {
			continue
		}
		avg := sums[t.key] / float64(n)
		results = append(results, models.ComparisonResult{
			DeviceName:         t.name,
			YourUsage:          t.total,
			AverageUsage:       avg,
			PercentDifference:  percentChange(t.total, avg),
			IsLowerThanAverage: t.total < avg,
		})
	}
	return results, nil
}

// deviceTotals суммирует ряды устройств; одинаковые ключи складываются
func deviceTotals(ds *models.ParticipantDataset, w models.TimeWindow, clip bool) []deviceTotal {
	var out []deviceTotal
	index := make(map[string]int)

	ds.Each(func(key string, series models.DeviceSeries) {
		var total float64
		if clip {
			for i, ts := range series.Timestamps {
				if i < len(series.Values) && w.Contains(ts) {
					total += series.Values[i]
				}
			}
		} else {
			total = series.Total()
		}

		dk := DeviceKey(key, series)
		if i, ok := index[dk]; ok {
			out[i].total += total
			return
		}
		name := series.Name
		if name == "" {
			name = key
		}
		index[dk] = len(out)
		out = append(out, deviceTotal{key: dk, name: name, total: total})
	})
	return out
}
