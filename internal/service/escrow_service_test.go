package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
)

func testEscrow(contractID uuid.UUID, milestoneID *uuid.UUID, amount float64) *models.Escrow {
	return &models.Escrow{
		ID:          uuid.New(),
		ContractID:  contractID,
		MilestoneID: milestoneID,
		Amount:      amount,
		Status:      models.EscrowStatusPending,
		Version:     1,
	}
}

func TestCreateEscrowMilestoneRequired(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusPending)
	contract.MilestoneBased = true

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	svc := NewEscrowService(new(mockEscrowRepo), contracts, new(mockMilestoneRepo), &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.CreateEscrow(ctx, contract.ID, clientID, nil, 500)

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "требуется веха")
}

func TestCreateEscrowFlatRejectsMilestone(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusPending)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	svc := NewEscrowService(new(mockEscrowRepo), contracts, new(mockMilestoneRepo), &mockNotifier{}, fixedClock{now: time.Now()})

	milestoneID := uuid.New()
	_, err := svc.CreateEscrow(ctx, contract.ID, clientID, &milestoneID, 500)

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateEscrowDuplicateForMilestone(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusPending)
	contract.MilestoneBased = true

	milestone := &models.Milestone{ID: uuid.New(), ContractID: contract.ID, Amount: 400}

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	milestones := new(mockMilestoneRepo)
	milestones.On("GetByID", ctx, milestone.ID).Return(milestone, nil)
	escrows := new(mockEscrowRepo)
	escrows.On("GetByMilestone", ctx, milestone.ID).Return(testEscrow(contract.ID, &milestone.ID, 400), nil)

	svc := NewEscrowService(escrows, contracts, milestones, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.CreateEscrow(ctx, contract.ID, clientID, &milestone.ID, 400)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	escrows.AssertNotCalled(t, "Create", ctx, mock.Anything)
}

func TestCreateEscrowFlat(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	freelancerID := uuid.New()
	contract := testContract(clientID, freelancerID, models.ContractStatusPending)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	escrows := new(mockEscrowRepo)
	escrows.On("GetFlatByContract", ctx, contract.ID).Return(nil, apperror.ErrEscrowNotFound)
	escrows.On("Create", ctx, mock.Anything).Return(nil)

	notifier := &mockNotifier{}
	svc := NewEscrowService(escrows, contracts, new(mockMilestoneRepo), notifier, fixedClock{now: time.Now()})

	escrow, err := svc.CreateEscrow(ctx, contract.ID, clientID, nil, 1000)

	assert.NoError(t, err)
	assert.Equal(t, models.EscrowStatusPending, escrow.Status)
	assert.Nil(t, escrow.MilestoneID)
	assert.Equal(t, []uuid.UUID{freelancerID}, notifier.notified)
	escrows.AssertExpectations(t)
}

func TestConfirmDepositIdempotent(t *testing.T) {
	ctx := context.Background()
	escrow := testEscrow(uuid.New(), nil, 1000)
	escrow.DepositConfirmed = true

	escrows := new(mockEscrowRepo)
	escrows.On("GetByID", ctx, escrow.ID).Return(escrow, nil)

	svc := NewEscrowService(escrows, new(mockContractRepo), new(mockMilestoneRepo), &mockNotifier{}, fixedClock{now: time.Now()})

	result, err := svc.ConfirmDeposit(ctx, escrow.ID)

	assert.NoError(t, err)
	assert.True(t, result.DepositConfirmed)
	escrows.AssertNotCalled(t, "ConfirmDeposit", ctx, escrow.ID, escrow.Version)
}

func TestReleaseAlreadyReleased(t *testing.T) {
	ctx := context.Background()
	escrow := testEscrow(uuid.New(), nil, 1000)
	escrow.Status = models.EscrowStatusReleased

	escrows := new(mockEscrowRepo)
	escrows.On("GetByID", ctx, escrow.ID).Return(escrow, nil)

	svc := NewEscrowService(escrows, new(mockContractRepo), new(mockMilestoneRepo), &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.Release(ctx, escrow.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "уже выплачено")
}

func TestReleaseUnconfirmedDeposit(t *testing.T) {
	ctx := context.Background()
	escrow := testEscrow(uuid.New(), nil, 1000)

	escrows := new(mockEscrowRepo)
	escrows.On("GetByID", ctx, escrow.ID).Return(escrow, nil)

	svc := NewEscrowService(escrows, new(mockContractRepo), new(mockMilestoneRepo), &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.Release(ctx, escrow.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "депозит не подтверждён")
}

func TestReleaseOnCompletedContract(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	freelancerID := uuid.New()
	contract := testContract(clientID, freelancerID, models.ContractStatusCompleted)

	escrow := testEscrow(contract.ID, nil, 1000)
	escrow.DepositConfirmed = true

	released := *escrow
	released.Status = models.EscrowStatusReleased

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	escrows := new(mockEscrowRepo)
	escrows.On("GetByID", ctx, escrow.ID).Return(escrow, nil)
	escrows.On("Release", ctx, escrow.ID, escrow.Version, now).Return(&released, nil)

	notifier := &mockNotifier{}
	svc := NewEscrowService(escrows, contracts, new(mockMilestoneRepo), notifier, fixedClock{now: now})

	result, err := svc.Release(ctx, escrow.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, result.Status)
	assert.ElementsMatch(t, []uuid.UUID{clientID, freelancerID}, notifier.notified)
	contracts.AssertExpectations(t)
	escrows.AssertExpectations(t)
}

func TestReleaseOnCompletedMilestoneOfPendingContract(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusPending)
	contract.MilestoneBased = true

	milestone := &models.Milestone{
		ID:         uuid.New(),
		ContractID: contract.ID,
		Amount:     400,
		Status:     models.MilestoneStatusCompleted,
	}

	escrow := testEscrow(contract.ID, &milestone.ID, 400)
	escrow.DepositConfirmed = true

	released := *escrow
	released.Status = models.EscrowStatusReleased

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	milestones := new(mockMilestoneRepo)
	milestones.On("GetByID", ctx, milestone.ID).Return(milestone, nil)
	escrows := new(mockEscrowRepo)
	escrows.On("GetByID", ctx, escrow.ID).Return(escrow, nil)
	escrows.On("Release", ctx, escrow.ID, escrow.Version, now).Return(&released, nil)

	svc := NewEscrowService(escrows, contracts, milestones, &mockNotifier{}, fixedClock{now: now})

	result, err := svc.Release(ctx, escrow.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, result.Status)
	milestones.AssertExpectations(t)
	escrows.AssertExpectations(t)
}

func TestReleaseBlockedForActiveContract(t *testing.T) {
	ctx := context.Background()
	contract := testContract(uuid.New(), uuid.New(), models.ContractStatusActive)

	escrow := testEscrow(contract.ID, nil, 1000)
	escrow.DepositConfirmed = true

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	escrows := new(mockEscrowRepo)
	escrows.On("GetByID", ctx, escrow.ID).Return(escrow, nil)

	svc := NewEscrowService(escrows, contracts, new(mockMilestoneRepo), &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.Release(ctx, escrow.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	escrows.AssertNotCalled(t, "Release", ctx, escrow.ID, escrow.Version, mock.Anything)
}

func TestIsFulfilledMilestoneBased(t *testing.T) {
	ctx := context.Background()
	contract := testContract(uuid.New(), uuid.New(), models.ContractStatusAccepted)
	contract.MilestoneBased = true

	m1 := models.Milestone{ID: uuid.New(), ContractID: contract.ID, Amount: 300}
	m2 := models.Milestone{ID: uuid.New(), ContractID: contract.ID, Amount: 700}

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	milestones := new(mockMilestoneRepo)
	milestones.On("ListByContract", ctx, contract.ID).Return([]models.Milestone{m1, m2}, nil)

	escrows := new(mockEscrowRepo)
	escrows.On("ListByContract", ctx, contract.ID).Return([]models.Escrow{
		*testEscrow(contract.ID, &m1.ID, 300),
		*testEscrow(contract.ID, &m2.ID, 700),
	}, nil)

	svc := NewEscrowService(escrows, contracts, milestones, &mockNotifier{}, fixedClock{now: time.Now()})

	fulfilled, err := svc.IsFulfilled(ctx, contract.ID)

	assert.NoError(t, err)
	assert.True(t, fulfilled)
}

func TestIsFulfilledMilestoneUncovered(t *testing.T) {
	ctx := context.Background()
	contract := testContract(uuid.New(), uuid.New(), models.ContractStatusAccepted)
	contract.MilestoneBased = true

	m1 := models.Milestone{ID: uuid.New(), ContractID: contract.ID, Amount: 300}
	m2 := models.Milestone{ID: uuid.New(), ContractID: contract.ID, Amount: 700}

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	milestones := new(mockMilestoneRepo)
	milestones.On("ListByContract", ctx, contract.ID).Return([]models.Milestone{m1, m2}, nil)

	// Вторая веха покрыта лишь частично.
	escrows := new(mockEscrowRepo)
	escrows.On("ListByContract", ctx, contract.ID).Return([]models.Escrow{
		*testEscrow(contract.ID, &m1.ID, 300),
		*testEscrow(contract.ID, &m2.ID, 500),
	}, nil)

	svc := NewEscrowService(escrows, contracts, milestones, &mockNotifier{}, fixedClock{now: time.Now()})

	fulfilled, err := svc.IsFulfilled(ctx, contract.ID)

	assert.NoError(t, err)
	assert.False(t, fulfilled)
}

func TestIsFulfilledFlat(t *testing.T) {
	ctx := context.Background()
	contract := testContract(uuid.New(), uuid.New(), models.ContractStatusAccepted)
	contract.AmountAgreed = 1000

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	escrows := new(mockEscrowRepo)
	escrows.On("GetFlatByContract", ctx, contract.ID).Return(testEscrow(contract.ID, nil, 1000), nil)

	svc := NewEscrowService(escrows, contracts, new(mockMilestoneRepo), &mockNotifier{}, fixedClock{now: time.Now()})

	fulfilled, err := svc.IsFulfilled(ctx, contract.ID)

	assert.NoError(t, err)
	assert.True(t, fulfilled)
}

func TestIsFulfilledFlatWithoutRecord(t *testing.T) {
	ctx := context.Background()
	contract := testContract(uuid.New(), uuid.New(), models.ContractStatusAccepted)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	escrows := new(mockEscrowRepo)
	escrows.On("GetFlatByContract", ctx, contract.ID).Return(nil, apperror.ErrEscrowNotFound)

	svc := NewEscrowService(escrows, contracts, new(mockMilestoneRepo), &mockNotifier{}, fixedClock{now: time.Now()})

	fulfilled, err := svc.IsFulfilled(ctx, contract.ID)

	assert.NoError(t, err)
	assert.False(t, fulfilled)
}
