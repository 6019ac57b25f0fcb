package source

import (
	"context"
	"math/rand"

	"energy-dashboard/internal/models"
)

// VariantSource выводит данные других участников из базового:
// каждое значение умножается на случайный множитель из [0.8, 1.2)
type VariantSource struct {
	base   DataSource
	baseID string
	peers  map[string]struct{}
}

// NewVariantSource создает источник производных участников
func NewVariantSource(base DataSource, baseID string, peerIDs []string) *VariantSource {
	peers := make(map[string]struct{}, len(peerIDs))
	for _, id := range peerIDs {
		if id != baseID {
			peers[id] = struct{}{}
		}
	}
	return &VariantSource{base: base, baseID: baseID, peers: peers}
}

// FetchDataset возвращает производный датасет для участников из списка,
// остальные запросы передаются базовому источнику
func (s *VariantSource) FetchDataset(ctx context.Context, participantID string) (*models.ParticipantDataset, error) {
	if _, ok := s.peers[participantID]; !ok {
		return s.base.FetchDataset(ctx, participantID)
	}

	base, err := s.base.FetchDataset(ctx, s.baseID)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed(participantID)))
	out := models.NewParticipantDataset()
	base.Each(func(key string, series models.DeviceSeries) {
		values := make([]float64, len(series.Values))
		for i, v := range series.Values {
			values[i] = round3(v * (0.8 + rng.Float64()*0.4))
		}
		out.Set(key, models.DeviceSeries{
			Name:       series.Name,
			Values:     values,
			Timestamps: append(series.Timestamps[:0:0], series.Timestamps...),
		})
	})
	return out, nil
}
