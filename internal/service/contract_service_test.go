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

func testContract(clientID, freelancerID uuid.UUID, status string) *models.Contract {
	return &models.Contract{
		ID:            uuid.New(),
		ClientID:      &clientID,
		FreelancerID:  &freelancerID,
		Terms:         "разработка сервиса",
		AmountAgreed:  1000,
		Status:        status,
		PaymentStatus: models.PaymentStatusNotStarted,
		Version:       1,
	}
}

func TestCreateContract(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	freelancerID := uuid.New()

	contracts := new(mockContractRepo)
	notifier := &mockNotifier{}
	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{}, notifier, fixedClock{now: time.Now()})

	contracts.On("Create", ctx, mock.Anything).Return(nil)

	contract, err := svc.CreateContract(ctx, clientID, CreateContractInput{
		FreelancerID: freelancerID,
		Terms:        "разработка сервиса",
		AmountAgreed: 1500,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusDraft, contract.Status)
	assert.Equal(t, models.PaymentStatusNotStarted, contract.PaymentStatus)
	assert.Equal(t, clientID, *contract.ClientID)
	assert.Equal(t, []uuid.UUID{freelancerID}, notifier.notified)
	contracts.AssertExpectations(t)
}

func TestCreateContractNonPositiveAmount(t *testing.T) {
	svc := NewContractService(new(mockContractRepo), new(mockMilestoneRepo), &mockLedger{}, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.CreateContract(context.Background(), uuid.New(), CreateContractInput{
		FreelancerID: uuid.New(),
		AmountAgreed: 0,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateContractStartAfterEnd(t *testing.T) {
	svc := NewContractService(new(mockContractRepo), new(mockMilestoneRepo), &mockLedger{}, &mockNotifier{}, fixedClock{now: time.Now()})

	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(-24 * time.Hour)
	_, err := svc.CreateContract(context.Background(), uuid.New(), CreateContractInput{
		FreelancerID: uuid.New(),
		AmountAgreed: 100,
		StartDate:    &start,
		EndDate:      &end,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "раньше даты окончания")
}

func TestUpdateContractStatusForbiddenForStranger(t *testing.T) {
	ctx := context.Background()
	contract := testContract(uuid.New(), uuid.New(), models.ContractStatusDraft)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{}, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.UpdateContractStatus(ctx, contract.ID, uuid.New(), models.ContractStatusPending)

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestUpdateContractStatusRejectsInDispute(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusActive)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{}, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.UpdateContractStatus(ctx, contract.ID, clientID, models.ContractStatusInDispute)

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "движок споров")
}

func TestUpdateContractStatusIllegalTransition(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusDraft)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{}, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.UpdateContractStatus(ctx, contract.ID, clientID, models.ContractStatusCompleted)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestActivateContractBlockedByUnfulfilledEscrow(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusAccepted)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	ledger := &mockLedger{hasRecords: true, fulfilled: false}
	svc := NewContractService(contracts, new(mockMilestoneRepo), ledger, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.UpdateContractStatus(ctx, contract.ID, clientID, models.ContractStatusActive)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "эскроу не покрывает")
	contracts.AssertNotCalled(t, "UpdateStatus", ctx, contract.ID, models.ContractStatusActive, contract.Version)
}

func TestActivateContractWithoutEscrowRecords(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	freelancerID := uuid.New()
	contract := testContract(clientID, freelancerID, models.ContractStatusAccepted)
	contract.Version = 3

	activated := *contract
	activated.Status = models.ContractStatusActive
	activated.Version = 4

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil).Once()
	contracts.On("UpdateStatus", ctx, contract.ID, models.ContractStatusActive, 3).Return(nil)
	contracts.On("GetByID", ctx, contract.ID).Return(&activated, nil).Once()

	notifier := &mockNotifier{}
	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{hasRecords: false}, notifier, fixedClock{now: time.Now()})

	updated, err := svc.UpdateContractStatus(ctx, contract.ID, clientID, models.ContractStatusActive)

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, updated.Status)
	assert.ElementsMatch(t, []uuid.UUID{clientID, freelancerID}, notifier.notified)
	contracts.AssertExpectations(t)
}

func TestActivateContractWithFulfilledEscrow(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusAccepted)

	activated := *contract
	activated.Status = models.ContractStatusActive

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil).Once()
	contracts.On("UpdateStatus", ctx, contract.ID, models.ContractStatusActive, contract.Version).Return(nil)
	contracts.On("GetByID", ctx, contract.ID).Return(&activated, nil).Once()

	ledger := &mockLedger{hasRecords: true, fulfilled: true}
	svc := NewContractService(contracts, new(mockMilestoneRepo), ledger, &mockNotifier{}, fixedClock{now: time.Now()})

	updated, err := svc.UpdateContractStatus(ctx, contract.ID, clientID, models.ContractStatusActive)

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, updated.Status)
	contracts.AssertExpectations(t)
}

func TestAcceptContractOnlyFreelancer(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusPending)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{}, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.AcceptContract(ctx, contract.ID, clientID)

	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestAcceptContractWrongStatus(t *testing.T) {
	ctx := context.Background()
	freelancerID := uuid.New()
	contract := testContract(uuid.New(), freelancerID, models.ContractStatusDraft)

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{}, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.AcceptContract(ctx, contract.ID, freelancerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestAcceptContractMergesPendingUpdate(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	freelancerID := uuid.New()
	contract := testContract(clientID, freelancerID, models.ContractStatusPending)

	updateID := uuid.New()
	contract.UpdateID = &updateID
	newAmount := 2500.0
	newTerms := "расширенный объём работ"
	update := &models.ContractUpdate{
		ID:           updateID,
		ContractID:   contract.ID,
		Terms:        &newTerms,
		AmountAgreed: &newAmount,
	}

	accepted := *contract
	accepted.Status = models.ContractStatusAccepted
	accepted.Terms = newTerms
	accepted.AmountAgreed = newAmount
	accepted.FreelancerAcceptedTerms = true
	accepted.UpdateID = nil

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil).Once()
	contracts.On("GetUpdate", ctx, updateID).Return(update, nil)
	contracts.On("Accept", ctx, mock.Anything, update).Return(nil).Run(func(args mock.Arguments) {
		merged := args.Get(1).(*models.Contract)
		assert.Equal(t, newTerms, merged.Terms)
		assert.Equal(t, newAmount, merged.AmountAgreed)
	})
	contracts.On("GetByID", ctx, contract.ID).Return(&accepted, nil).Once()

	notifier := &mockNotifier{}
	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{}, notifier, fixedClock{now: time.Now()})

	result, err := svc.AcceptContract(ctx, contract.ID, freelancerID)

	assert.NoError(t, err)
	assert.Equal(t, models.ContractStatusAccepted, result.Status)
	assert.True(t, result.FreelancerAcceptedTerms)
	assert.Nil(t, result.UpdateID)
	assert.ElementsMatch(t, []uuid.UUID{clientID, freelancerID}, notifier.notified)
	contracts.AssertExpectations(t)
}

func TestCreateMilestoneOnFlatContract(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusPending)
	contract.MilestoneBased = false

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{}, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.CreateMilestone(ctx, contract.ID, clientID, CreateMilestoneInput{
		Title:   "этап 1",
		Amount:  300,
		DueDate: time.Now().Add(time.Hour),
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Contains(t, err.Error(), "не разбит на вехи")
}

func TestCreateMilestoneDueDateInPast(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusPending)
	contract.MilestoneBased = true

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc := NewContractService(contracts, new(mockMilestoneRepo), &mockLedger{}, &mockNotifier{}, fixedClock{now: now})

	_, err := svc.CreateMilestone(ctx, contract.ID, clientID, CreateMilestoneInput{
		Title:   "этап 1",
		Amount:  300,
		DueDate: now.Add(-time.Minute),
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateMilestone(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	freelancerID := uuid.New()
	contract := testContract(clientID, freelancerID, models.ContractStatusPending)
	contract.MilestoneBased = true

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)

	milestones := new(mockMilestoneRepo)
	milestones.On("Create", ctx, mock.Anything).Return(nil)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	notifier := &mockNotifier{}
	svc := NewContractService(contracts, milestones, &mockLedger{}, notifier, fixedClock{now: now})

	milestone, err := svc.CreateMilestone(ctx, contract.ID, clientID, CreateMilestoneInput{
		Title:   "этап 1",
		Amount:  300,
		DueDate: now.Add(7 * 24 * time.Hour),
	})

	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusPending, milestone.Status)
	assert.Equal(t, models.PaymentStatusNotStarted, milestone.PaymentStatus)
	assert.ElementsMatch(t, []uuid.UUID{clientID, freelancerID}, notifier.notified)
	milestones.AssertExpectations(t)
}

func TestUpdateMilestoneStatusIllegalTransition(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	contract := testContract(clientID, uuid.New(), models.ContractStatusActive)
	milestone := &models.Milestone{
		ID:         uuid.New(),
		ContractID: contract.ID,
		Title:      "этап 1",
		Amount:     300,
		Status:     models.MilestoneStatusPending,
		Version:    1,
	}

	contracts := new(mockContractRepo)
	contracts.On("GetByID", ctx, contract.ID).Return(contract, nil)
	milestones := new(mockMilestoneRepo)
	milestones.On("GetByID", ctx, milestone.ID).Return(milestone, nil)

	svc := NewContractService(contracts, milestones, &mockLedger{}, &mockNotifier{}, fixedClock{now: time.Now()})

	_, err := svc.UpdateMilestoneStatus(ctx, milestone.ID, clientID, models.MilestoneStatusCompleted)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}
