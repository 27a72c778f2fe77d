package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ethiogig/ethiogig-backend/internal/models"
)

type mockContractRepo struct {
	mock.Mock
}

func (m *mockContractRepo) Create(ctx context.Context, c *models.Contract) error {
	args := m.Called(ctx, c)
	if args.Error(0) == nil {
		c.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockContractRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contract), args.Error(1)
}

func (m *mockContractRepo) UpdateTerms(ctx context.Context, c *models.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockContractRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) error {
	args := m.Called(ctx, id, status, version)
	return args.Error(0)
}

func (m *mockContractRepo) CreateUpdate(ctx context.Context, u *models.ContractUpdate) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockContractRepo) GetUpdate(ctx context.Context, id uuid.UUID) (*models.ContractUpdate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContractUpdate), args.Error(1)
}

func (m *mockContractRepo) Accept(ctx context.Context, c *models.Contract, update *models.ContractUpdate) error {
	args := m.Called(ctx, c, update)
	return args.Error(0)
}

func (m *mockContractRepo) HasActiveBetween(ctx context.Context, freelancerID, clientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, freelancerID, clientID)
	return args.Bool(0), args.Error(1)
}

type mockMilestoneRepo struct {
	mock.Mock
}

func (m *mockMilestoneRepo) Create(ctx context.Context, ms *models.Milestone) error {
	args := m.Called(ctx, ms)
	if args.Error(0) == nil {
		ms.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockMilestoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).([]models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) UpdateFields(ctx context.Context, ms *models.Milestone) error {
	args := m.Called(ctx, ms)
	return args.Error(0)
}

func (m *mockMilestoneRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) error {
	args := m.Called(ctx, id, status, version)
	return args.Error(0)
}

func (m *mockMilestoneRepo) CreateUpdate(ctx context.Context, u *models.MilestoneUpdate) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockMilestoneRepo) GetUpdate(ctx context.Context, id uuid.UUID) (*models.MilestoneUpdate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MilestoneUpdate), args.Error(1)
}

func (m *mockMilestoneRepo) Accept(ctx context.Context, ms *models.Milestone, update *models.MilestoneUpdate) error {
	args := m.Called(ctx, ms, update)
	return args.Error(0)
}

type mockEscrowRepo struct {
	mock.Mock
}

func (m *mockEscrowRepo) Create(ctx context.Context, e *models.Escrow) error {
	args := m.Called(ctx, e)
	if args.Error(0) == nil {
		e.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockEscrowRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Escrow, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).([]models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) GetByMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, milestoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) GetFlatByContract(ctx context.Context, contractID uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowRepo) ConfirmDeposit(ctx context.Context, id uuid.UUID, version int) error {
	args := m.Called(ctx, id, version)
	return args.Error(0)
}

func (m *mockEscrowRepo) Release(ctx context.Context, id uuid.UUID, version int, releasedAt time.Time) (*models.Escrow, error) {
	args := m.Called(ctx, id, version, releasedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) Create(ctx context.Context, d *models.Dispute, targetVersion int) error {
	args := m.Called(ctx, d, targetVersion)
	if args.Error(0) == nil {
		d.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) HasActiveForContract(ctx context.Context, contractID uuid.UUID) (bool, error) {
	args := m.Called(ctx, contractID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDisputeRepo) HasActiveForMilestone(ctx context.Context, milestoneID uuid.UUID) (bool, error) {
	args := m.Called(ctx, milestoneID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDisputeRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) error {
	args := m.Called(ctx, id, status, version)
	return args.Error(0)
}

func (m *mockDisputeRepo) MarkResponded(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockDisputeRepo) CreateResponse(ctx context.Context, resp *models.DisputeResponse) error {
	args := m.Called(ctx, resp)
	if args.Error(0) == nil {
		resp.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockDisputeRepo) GetResponseByDispute(ctx context.Context, disputeID uuid.UUID) (*models.DisputeResponse, error) {
	args := m.Called(ctx, disputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DisputeResponse), args.Error(1)
}

func (m *mockDisputeRepo) AddDocument(ctx context.Context, doc *models.SupportingDocument) error {
	args := m.Called(ctx, doc)
	if args.Error(0) == nil {
		doc.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockDisputeRepo) ListDocumentsByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.SupportingDocument, error) {
	args := m.Called(ctx, disputeID)
	return args.Get(0).([]models.SupportingDocument), args.Error(1)
}

func (m *mockDisputeRepo) ClearDocuments(ctx context.Context, disputeID uuid.UUID) ([]models.SupportingDocument, error) {
	args := m.Called(ctx, disputeID)
	return args.Get(0).([]models.SupportingDocument), args.Error(1)
}

type mockDrcRepo struct {
	mock.Mock
}

func (m *mockDrcRepo) ManagerLoads(ctx context.Context, now time.Time) ([]models.ManagerLoad, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]models.ManagerLoad), args.Error(1)
}

func (m *mockDrcRepo) CreateForwarded(ctx context.Context, f *models.DrcForwardedDispute, disputeVersion int) error {
	args := m.Called(ctx, f, disputeVersion)
	if args.Error(0) == nil {
		f.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockDrcRepo) GetForwardedByID(ctx context.Context, id uuid.UUID) (*models.DrcForwardedDispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrcForwardedDispute), args.Error(1)
}

func (m *mockDrcRepo) GetUnsolvedByDispute(ctx context.Context, disputeID uuid.UUID) (*models.DrcForwardedDispute, error) {
	args := m.Called(ctx, disputeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrcForwardedDispute), args.Error(1)
}

func (m *mockDrcRepo) Resolve(ctx context.Context, forwardedID uuid.UUID, resolved *models.DrcResolvedDispute) error {
	args := m.Called(ctx, forwardedID, resolved)
	return args.Error(0)
}

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// mockNotifier собирает уведомления, не проверяя их построчно.
type mockNotifier struct {
	notified []uuid.UUID
	emails   []string
}

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, title, description string) {
	m.notified = append(m.notified, userID)
}

func (m *mockNotifier) Email(ctx context.Context, address, subject, htmlBody string) {
	m.emails = append(m.emails, address)
}

// mockLedger фиксированный ответ о состоянии эскроу контракта.
type mockLedger struct {
	fulfilled  bool
	hasRecords bool
}

func (m *mockLedger) IsFulfilled(ctx context.Context, contractID uuid.UUID) (bool, error) {
	return m.fulfilled, nil
}

func (m *mockLedger) HasRecords(ctx context.Context, contractID uuid.UUID) (bool, error) {
	return m.hasRecords, nil
}

// fixedClock отдаёт заранее заданное время.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}
