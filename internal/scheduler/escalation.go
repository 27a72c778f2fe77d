package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ethiogig/ethiogig-backend/internal/logger"
	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/clock"
)

// DisputeSweeper описывает выборку и автозакрытие просроченных споров.
type DisputeSweeper interface {
	ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]models.Dispute, error)
	MarkAutoResolved(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// Notifier уведомляет стороны об автозакрытии.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, description string)
}

// EscalationScheduler периодически автозакрывает открытые споры,
// по которым вторая сторона не ответила до дедлайна.
type EscalationScheduler struct {
	sweeper   DisputeSweeper
	notifier  Notifier
	clock     clock.Clock
	interval  time.Duration
	batchSize int
}

func NewEscalationScheduler(sweeper DisputeSweeper, notifier Notifier, clk clock.Clock, interval time.Duration) *EscalationScheduler {
	return &EscalationScheduler{
		sweeper:   sweeper,
		notifier:  notifier,
		clock:     clk,
		interval:  interval,
		batchSize: 100,
	}
}

// Run крутит цикл прогонов до отмены контекста. Первый прогон
// выполняется сразу, не дожидаясь тика.
func (s *EscalationScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Log.WithField("interval", s.interval.String()).Info("escalation scheduler: запущен")

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("escalation scheduler: остановлен")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep выполняет один прогон. Каждый спор закрывается отдельным
// идемпотентным обновлением, сбой одного не прерывает остальные.
func (s *EscalationScheduler) Sweep(ctx context.Context) {
	now := s.clock.Now()

	disputes, err := s.sweeper.ListExpiredOpen(ctx, now, s.batchSize)
	if err != nil {
		logger.Log.WithError(err).Error("escalation scheduler: выборка просроченных споров")
		return
	}
	if len(disputes) == 0 {
		return
	}

	resolved := 0
	for _, d := range disputes {
		applied, err := s.sweeper.MarkAutoResolved(ctx, d.ID, now)
		if err != nil {
			logger.Log.WithError(err).WithField("dispute_id", d.ID).
				Error("escalation scheduler: автозакрытие спора")
			continue
		}
		if !applied {
			continue
		}
		resolved++
		s.notifyParties(ctx, &d)
	}

	logger.Log.WithFields(logrus.Fields{
		"checked":  len(disputes),
		"resolved": resolved,
	}).Info("escalation scheduler: прогон завершён")
}

func (s *EscalationScheduler) notifyParties(ctx context.Context, d *models.Dispute) {
	const title = "Спор закрыт автоматически"
	const description = "Срок ответа истёк, спор закрыт без ответа второй стороны"
	if d.ClientID != nil {
		s.notifier.Notify(ctx, *d.ClientID, title, description)
	}
	if d.FreelancerID != nil {
		s.notifier.Notify(ctx, *d.FreelancerID, title, description)
	}
}
