package scheduler

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ethiogig/ethiogig-backend/internal/logger"
	"github.com/ethiogig/ethiogig-backend/internal/models"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]models.Dispute, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockSweeper) MarkAutoResolved(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

type recordingNotifier struct {
	notified []uuid.UUID
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, description string) {
	n.notified = append(n.notified, userID)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func expiredDispute(clientID, freelancerID uuid.UUID) models.Dispute {
	return models.Dispute{
		ID:           uuid.New(),
		ContractID:   uuid.New(),
		ClientID:     &clientID,
		FreelancerID: &freelancerID,
		Status:       models.DisputeStatusOpen,
	}
}

func TestSweepAutoResolvesExpiredDisputes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	clientID := uuid.New()
	freelancerID := uuid.New()
	d := expiredDispute(clientID, freelancerID)

	sweeper := new(mockSweeper)
	sweeper.On("ListExpiredOpen", ctx, now, 100).Return([]models.Dispute{d}, nil)
	sweeper.On("MarkAutoResolved", ctx, d.ID, now).Return(true, nil)

	notifier := &recordingNotifier{}
	s := NewEscalationScheduler(sweeper, notifier, fixedClock{now: now}, time.Hour)

	s.Sweep(ctx)

	assert.ElementsMatch(t, []uuid.UUID{clientID, freelancerID}, notifier.notified)
	sweeper.AssertExpectations(t)
}

func TestSweepSkipsAlreadyHandledDispute(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	d := expiredDispute(uuid.New(), uuid.New())

	// Конкурирующий прогон успел закрыть спор первым: обновление не
	// применилось, уведомления не рассылаются.
	sweeper := new(mockSweeper)
	sweeper.On("ListExpiredOpen", ctx, now, 100).Return([]models.Dispute{d}, nil)
	sweeper.On("MarkAutoResolved", ctx, d.ID, now).Return(false, nil)

	notifier := &recordingNotifier{}
	s := NewEscalationScheduler(sweeper, notifier, fixedClock{now: now}, time.Hour)

	s.Sweep(ctx)

	assert.Empty(t, notifier.notified)
}

func TestSweepContinuesAfterItemFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	clientID := uuid.New()
	freelancerID := uuid.New()
	broken := expiredDispute(uuid.New(), uuid.New())
	healthy := expiredDispute(clientID, freelancerID)

	sweeper := new(mockSweeper)
	sweeper.On("ListExpiredOpen", ctx, now, 100).Return([]models.Dispute{broken, healthy}, nil)
	sweeper.On("MarkAutoResolved", ctx, broken.ID, now).Return(false, errors.New("connection reset"))
	sweeper.On("MarkAutoResolved", ctx, healthy.ID, now).Return(true, nil)

	notifier := &recordingNotifier{}
	s := NewEscalationScheduler(sweeper, notifier, fixedClock{now: now}, time.Hour)

	s.Sweep(ctx)

	assert.ElementsMatch(t, []uuid.UUID{clientID, freelancerID}, notifier.notified)
	sweeper.AssertExpectations(t)
}

func TestSweepListFailureAborts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	sweeper := new(mockSweeper)
	sweeper.On("ListExpiredOpen", ctx, now, 100).Return([]models.Dispute(nil), errors.New("connection reset"))

	notifier := &recordingNotifier{}
	s := NewEscalationScheduler(sweeper, notifier, fixedClock{now: now}, time.Hour)

	s.Sweep(ctx)

	assert.Empty(t, notifier.notified)
	sweeper.AssertNotCalled(t, "MarkAutoResolved", ctx, mock.Anything, now)
}
