package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"energy-dashboard/internal/metrics"
)

// ErrSuperseded возвращается, если после запроса был выдан более новый
var ErrSuperseded = errors.New("request superseded by a newer one")

// Builder рассчитывает снимок по запросу
type Builder interface {
	Build(ctx context.Context, q Query) (*Snapshot, error)
}

// Session последовательность запросов одного клиента: побеждает последний.
// Новый запрос отменяет контекст предыдущего, а результат, пришедший
// после выдачи более нового запроса, отбрасывается.
type Session struct {
	ID      string
	builder Builder

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSession создает сессию
func NewSession(builder Builder) *Session {
	return &Session{
		ID:      uuid.NewString(),
		builder: builder,
	}
}

// Ticket зарезервированный запрос сессии
type Ticket struct {
	session *Session
	id      uint64
	ctx     context.Context
	cancel  context.CancelFunc
}

// Begin резервирует номер запроса и отменяет предыдущий.
// Порядок вызовов Begin определяет, какой запрос последний.
func (s *Session) Begin(ctx context.Context) *Ticket {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	return &Ticket{session: s, id: s.seq, ctx: ctx, cancel: cancel}
}

// Run выполняет зарезервированный запрос; устаревший результат заменяется ErrSuperseded
func (t *Ticket) Run(q Query) (*Snapshot, error) {
	defer t.cancel()
	s := t.session

	snap, err := s.builder.Build(t.ctx, q)

	s.mu.Lock()
	latest := s.seq == t.id
	if latest {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !latest {
		metrics.SupersededRequests.Inc()
		return nil, ErrSuperseded
	}
	return snap, err
}

// Request резервирует и выполняет запрос
func (s *Session) Request(ctx context.Context, q Query) (*Snapshot, error) {
	return s.Begin(ctx).Run(q)
}

// Close отменяет выполняющийся запрос
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
