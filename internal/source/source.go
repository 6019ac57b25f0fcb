// Package source реализует загрузку датасетов участников из разных источников
package source

import (
	"context"
	"errors"
	"fmt"

	"energy-dashboard/internal/models"
)

// ErrParticipantNotFound возвращается, если у источника нет такого участника
var ErrParticipantNotFound = errors.New("participant not found")

// DataSource отдает датасет участника по идентификатору
type DataSource interface {
	FetchDataset(ctx context.Context, participantID string) (*models.ParticipantDataset, error)
}

// FetchError ошибка получения датасета (сеть, таймаут, ответ 5xx)
type FetchError struct {
	Participant string
	StatusCode  int
	Err         error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch dataset %s: upstream status %d", e.Participant, e.StatusCode)
	}
	return fmt.Sprintf("fetch dataset %s: %v", e.Participant, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func notFound(participantID string) error {
	return fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
}
