package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/clock"
)

// ContractRepository описывает взаимодействие сервиса с хранилищем контрактов.
type ContractRepository interface {
	Create(ctx context.Context, c *models.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	UpdateTerms(ctx context.Context, c *models.Contract) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) error
	CreateUpdate(ctx context.Context, u *models.ContractUpdate) error
	GetUpdate(ctx context.Context, id uuid.UUID) (*models.ContractUpdate, error)
	Accept(ctx context.Context, c *models.Contract, update *models.ContractUpdate) error
	HasActiveBetween(ctx context.Context, freelancerID, clientID uuid.UUID) (bool, error)
}

// MilestoneRepository описывает взаимодействие сервиса с хранилищем вех.
type MilestoneRepository interface {
	Create(ctx context.Context, m *models.Milestone) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error)
	UpdateFields(ctx context.Context, m *models.Milestone) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) error
	CreateUpdate(ctx context.Context, u *models.MilestoneUpdate) error
	GetUpdate(ctx context.Context, id uuid.UUID) (*models.MilestoneUpdate, error)
	Accept(ctx context.Context, m *models.Milestone, update *models.MilestoneUpdate) error
}

// EscrowLedger то, что менеджеру контрактов нужно знать об эскроу:
// есть ли записи и покрывают ли они обязательства контракта.
type EscrowLedger interface {
	IsFulfilled(ctx context.Context, contractID uuid.UUID) (bool, error)
	HasRecords(ctx context.Context, contractID uuid.UUID) (bool, error)
}

// ContractService управляет жизненным циклом контрактов и их вех.
type ContractService struct {
	contracts  ContractRepository
	milestones MilestoneRepository
	escrow     EscrowLedger
	notifier   Notifier
	clock      clock.Clock
}

func NewContractService(contracts ContractRepository, milestones MilestoneRepository, escrow EscrowLedger, notifier Notifier, clk clock.Clock) *ContractService {
	return &ContractService{
		contracts:  contracts,
		milestones: milestones,
		escrow:     escrow,
		notifier:   notifier,
		clock:      clk,
	}
}

// CreateContractInput параметры создания контракта.
type CreateContractInput struct {
	FreelancerID   uuid.UUID
	ProjectID      *uuid.UUID
	Terms          string
	PaymentTerms   string
	StartDate      *time.Time
	EndDate        *time.Time
	AmountAgreed   float64
	MilestoneBased bool
	Hourly         bool
}

// CreateContract создаёт контракт от имени клиента.
func (s *ContractService) CreateContract(ctx context.Context, clientID uuid.UUID, input CreateContractInput) (*models.Contract, error) {
	if input.AmountAgreed <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма контракта должна быть положительной")
	}
	if err := validateDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	contract := &models.Contract{
		ClientID:       &clientID,
		FreelancerID:   &input.FreelancerID,
		ProjectID:      input.ProjectID,
		Terms:          input.Terms,
		PaymentTerms:   input.PaymentTerms,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		AmountAgreed:   input.AmountAgreed,
		MilestoneBased: input.MilestoneBased,
		Hourly:         input.Hourly,
		Status:         models.ContractStatusDraft,
		PaymentStatus:  models.PaymentStatusNotStarted,
	}
	if err := s.contracts.Create(ctx, contract); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, input.FreelancerID, "Новый контракт",
		"Клиент подготовил контракт и ожидает вашего решения")
	return contract, nil
}

// GetContract возвращает контракт его сторонам.
func (s *ContractService) GetContract(ctx context.Context, contractID, actorID uuid.UUID) (*models.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) && !isFreelancer(contract, actorID) {
		return nil, apperror.ErrForbidden
	}
	return contract, nil
}

// ListMilestones возвращает вехи контракта его сторонам.
func (s *ContractService) ListMilestones(ctx context.Context, contractID, actorID uuid.UUID) ([]models.Milestone, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) && !isFreelancer(contract, actorID) {
		return nil, apperror.ErrForbidden
	}
	return s.milestones.ListByContract(ctx, contractID)
}

// UpdateContractInput редактируемые клиентом поля контракта.
type UpdateContractInput struct {
	Terms        *string
	PaymentTerms *string
	StartDate    *time.Time
	EndDate      *time.Time
	AmountAgreed *float64
}

// UpdateContract обновляет условия контракта. Доступно только
// клиенту-владельцу; freelancer_accepted_terms отсюда недостижим.
func (s *ContractService) UpdateContract(ctx context.Context, contractID, actorID uuid.UUID, input UpdateContractInput) (*models.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "изменять контракт может только клиент-владелец")
	}

	if input.Terms != nil {
		contract.Terms = *input.Terms
	}
	if input.PaymentTerms != nil {
		contract.PaymentTerms = *input.PaymentTerms
	}
	if input.StartDate != nil {
		contract.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		contract.EndDate = input.EndDate
	}
	if input.AmountAgreed != nil {
		if *input.AmountAgreed <= 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "сумма контракта должна быть положительной")
		}
		contract.AmountAgreed = *input.AmountAgreed
	}
	if err := validateDates(contract.StartDate, contract.EndDate); err != nil {
		return nil, err
	}

	if err := s.contracts.UpdateTerms(ctx, contract); err != nil {
		return nil, err
	}
	return s.contracts.GetByID(ctx, contractID)
}

// ProposeContractUpdate сохраняет черновик-замену условий, который вступит
// в силу только после принятия контракта фрилансером.
func (s *ContractService) ProposeContractUpdate(ctx context.Context, contractID, actorID uuid.UUID, input UpdateContractInput) (*models.ContractUpdate, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "предлагать изменения может только клиент-владелец")
	}
	if err := validateDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	update := &models.ContractUpdate{
		ContractID:   contractID,
		Terms:        input.Terms,
		PaymentTerms: input.PaymentTerms,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		AmountAgreed: input.AmountAgreed,
	}
	if err := s.contracts.CreateUpdate(ctx, update); err != nil {
		return nil, err
	}

	if contract.FreelancerID != nil {
		s.notifier.Notify(ctx, *contract.FreelancerID, "Изменение условий контракта",
			"Клиент предложил новые условия, они применятся после вашего принятия")
	}
	return update, nil
}

// UpdateContractStatus переводит контракт в новый статус по таблице
// переходов. Переход в active при существующих эскроу-записях требует
// полного покрытия обязательств.
func (s *ContractService) UpdateContractStatus(ctx context.Context, contractID, actorID uuid.UUID, newStatus string) (*models.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "менять статус контракта может только клиент-владелец")
	}
	if _, ok := models.ValidContractStatuses[newStatus]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "неизвестный статус контракта %q", newStatus)
	}
	if newStatus == models.ContractStatusInDispute {
		return nil, apperror.New(apperror.ErrCodeValidation, "статус inDispute выставляет только движок споров")
	}
	if !models.CanTransit(models.ContractTransitions, contract.Status, newStatus) {
		return nil, apperror.Newf(apperror.ErrCodeConflict, "переход контракта из %q в %q недопустим", contract.Status, newStatus)
	}

	if newStatus == models.ContractStatusActive {
		hasRecords, err := s.escrow.HasRecords(ctx, contractID)
		if err != nil {
			return nil, err
		}
		if hasRecords {
			fulfilled, err := s.escrow.IsFulfilled(ctx, contractID)
			if err != nil {
				return nil, err
			}
			if !fulfilled {
				return nil, apperror.New(apperror.ErrCodeConflict,
					"эскроу не покрывает обязательства контракта: пополните депозит и повторите активацию")
			}
		}
	}

	if err := s.contracts.UpdateStatus(ctx, contractID, newStatus, contract.Version); err != nil {
		return nil, err
	}
	updated, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	s.notifyParties(ctx, updated, "Статус контракта изменён",
		fmt.Sprintf("Контракт переведён в статус %q", newStatus))
	return updated, nil
}

// AcceptContract фиксирует принятие условий фрилансером. Ожидающий
// черновик-замена сливается в оригинал и удаляется, вехи в статусе
// pending повышаются до accepted.
func (s *ContractService) AcceptContract(ctx context.Context, contractID, actorID uuid.UUID) (*models.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !isFreelancer(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "принять контракт может только фрилансер")
	}
	if contract.Status != models.ContractStatusPending {
		return nil, apperror.Newf(apperror.ErrCodeConflict, "контракт в статусе %q нельзя принять", contract.Status)
	}

	var update *models.ContractUpdate
	if contract.UpdateID != nil {
		update, err = s.contracts.GetUpdate(ctx, *contract.UpdateID)
		if err != nil {
			return nil, err
		}
		applyContractUpdate(contract, update)
		if err := validateDates(contract.StartDate, contract.EndDate); err != nil {
			return nil, err
		}
	}

	if err := s.contracts.Accept(ctx, contract, update); err != nil {
		return nil, err
	}
	accepted, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	s.notifyParties(ctx, accepted, "Контракт принят", "Фрилансер принял условия контракта")
	return accepted, nil
}

// CreateMilestoneInput параметры создания вехи.
type CreateMilestoneInput struct {
	Title       string
	Description string
	Amount      float64
	DueDate     time.Time
}

// CreateMilestone добавляет веху к помильному контракту.
func (s *ContractService) CreateMilestone(ctx context.Context, contractID, actorID uuid.UUID, input CreateMilestoneInput) (*models.Milestone, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "создавать вехи может только клиент-владелец")
	}
	if !contract.MilestoneBased {
		return nil, apperror.New(apperror.ErrCodeValidation, "контракт не разбит на вехи")
	}
	if input.Amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма вехи должна быть положительной")
	}
	if input.DueDate.Before(s.clock.Now()) {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок вехи не может быть в прошлом")
	}

	milestone := &models.Milestone{
		ContractID:    contractID,
		Title:         input.Title,
		Description:   input.Description,
		Amount:        input.Amount,
		DueDate:       input.DueDate,
		Status:        models.MilestoneStatusPending,
		PaymentStatus: models.PaymentStatusNotStarted,
	}
	if err := s.milestones.Create(ctx, milestone); err != nil {
		return nil, err
	}

	s.notifyParties(ctx, contract, "Новая веха", fmt.Sprintf("К контракту добавлена веха %q", input.Title))
	return milestone, nil
}

// UpdateMilestoneInput редактируемые клиентом поля вехи.
type UpdateMilestoneInput struct {
	Title       *string
	Description *string
	Amount      *float64
	DueDate     *time.Time
}

// UpdateMilestone обновляет поля вехи от имени клиента.
func (s *ContractService) UpdateMilestone(ctx context.Context, milestoneID, actorID uuid.UUID, input UpdateMilestoneInput) (*models.Milestone, error) {
	milestone, contract, err := s.milestoneWithContract(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "изменять веху может только клиент-владелец")
	}

	if input.Title != nil {
		milestone.Title = *input.Title
	}
	if input.Description != nil {
		milestone.Description = *input.Description
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "сумма вехи должна быть положительной")
		}
		milestone.Amount = *input.Amount
	}
	if input.DueDate != nil {
		if input.DueDate.Before(s.clock.Now()) {
			return nil, apperror.New(apperror.ErrCodeValidation, "срок вехи не может быть в прошлом")
		}
		milestone.DueDate = *input.DueDate
	}

	if err := s.milestones.UpdateFields(ctx, milestone); err != nil {
		return nil, err
	}
	return s.milestones.GetByID(ctx, milestoneID)
}

// ProposeMilestoneUpdate сохраняет черновик-замену вехи.
func (s *ContractService) ProposeMilestoneUpdate(ctx context.Context, milestoneID, actorID uuid.UUID, input UpdateMilestoneInput) (*models.MilestoneUpdate, error) {
	_, contract, err := s.milestoneWithContract(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "предлагать изменения может только клиент-владелец")
	}
	if input.DueDate != nil && input.DueDate.Before(s.clock.Now()) {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок вехи не может быть в прошлом")
	}

	update := &models.MilestoneUpdate{
		MilestoneID: milestoneID,
		Title:       input.Title,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     input.DueDate,
	}
	if err := s.milestones.CreateUpdate(ctx, update); err != nil {
		return nil, err
	}

	if contract.FreelancerID != nil {
		s.notifier.Notify(ctx, *contract.FreelancerID, "Изменение вехи",
			"Клиент предложил новые условия вехи, они применятся после вашего принятия")
	}
	return update, nil
}

// UpdateMilestoneStatus переводит веху в новый статус по таблице переходов.
func (s *ContractService) UpdateMilestoneStatus(ctx context.Context, milestoneID, actorID uuid.UUID, newStatus string) (*models.Milestone, error) {
	milestone, contract, err := s.milestoneWithContract(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "менять статус вехи может только клиент-владелец")
	}
	if _, ok := models.ValidMilestoneStatuses[newStatus]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "неизвестный статус вехи %q", newStatus)
	}
	if newStatus == models.MilestoneStatusInDispute {
		return nil, apperror.New(apperror.ErrCodeValidation, "статус inDispute выставляет только движок споров")
	}
	if !models.CanTransit(models.MilestoneTransitions, milestone.Status, newStatus) {
		return nil, apperror.Newf(apperror.ErrCodeConflict, "переход вехи из %q в %q недопустим", milestone.Status, newStatus)
	}

	if err := s.milestones.UpdateStatus(ctx, milestoneID, newStatus, milestone.Version); err != nil {
		return nil, err
	}
	updated, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	s.notifyParties(ctx, contract, "Статус вехи изменён",
		fmt.Sprintf("Веха %q переведена в статус %q", milestone.Title, newStatus))
	return updated, nil
}

// AcceptMilestone фиксирует принятие вехи фрилансером, сливая
// черновик-замену аналогично принятию контракта.
func (s *ContractService) AcceptMilestone(ctx context.Context, milestoneID, actorID uuid.UUID) (*models.Milestone, error) {
	milestone, contract, err := s.milestoneWithContract(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if !isFreelancer(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "принять веху может только фрилансер")
	}
	if milestone.Status != models.MilestoneStatusPending {
		return nil, apperror.Newf(apperror.ErrCodeConflict, "веху в статусе %q нельзя принять", milestone.Status)
	}

	var update *models.MilestoneUpdate
	if milestone.UpdateID != nil {
		update, err = s.milestones.GetUpdate(ctx, *milestone.UpdateID)
		if err != nil {
			return nil, err
		}
		applyMilestoneUpdate(milestone, update)
	}

	if err := s.milestones.Accept(ctx, milestone, update); err != nil {
		return nil, err
	}
	accepted, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	s.notifyParties(ctx, contract, "Веха принята", fmt.Sprintf("Фрилансер принял веху %q", accepted.Title))
	return accepted, nil
}

// CheckActiveContract сообщает, есть ли действующий контракт между
// фрилансером и клиентом.
func (s *ContractService) CheckActiveContract(ctx context.Context, freelancerID, clientID uuid.UUID) (bool, error) {
	return s.contracts.HasActiveBetween(ctx, freelancerID, clientID)
}

func (s *ContractService) milestoneWithContract(ctx context.Context, milestoneID uuid.UUID) (*models.Milestone, *models.Contract, error) {
	milestone, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, nil, err
	}
	contract, err := s.contracts.GetByID(ctx, milestone.ContractID)
	if err != nil {
		return nil, nil, err
	}
	return milestone, contract, nil
}

func (s *ContractService) notifyParties(ctx context.Context, c *models.Contract, title, description string) {
	if c.ClientID != nil {
		s.notifier.Notify(ctx, *c.ClientID, title, description)
	}
	if c.FreelancerID != nil {
		s.notifier.Notify(ctx, *c.FreelancerID, title, description)
	}
}

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && !start.Before(*end) {
		return apperror.New(apperror.ErrCodeValidation, "дата начала должна быть раньше даты окончания")
	}
	return nil
}

func isClient(c *models.Contract, userID uuid.UUID) bool {
	return c.ClientID != nil && *c.ClientID == userID
}

func isFreelancer(c *models.Contract, userID uuid.UUID) bool {
	return c.FreelancerID != nil && *c.FreelancerID == userID
}

func applyContractUpdate(c *models.Contract, u *models.ContractUpdate) {
	if u.Terms != nil {
		c.Terms = *u.Terms
	}
	if u.PaymentTerms != nil {
		c.PaymentTerms = *u.PaymentTerms
	}
	if u.StartDate != nil {
		c.StartDate = u.StartDate
	}
	if u.EndDate != nil {
		c.EndDate = u.EndDate
	}
	if u.AmountAgreed != nil {
		c.AmountAgreed = *u.AmountAgreed
	}
}

func applyMilestoneUpdate(m *models.Milestone, u *models.MilestoneUpdate) {
	if u.Title != nil {
		m.Title = *u.Title
	}
	if u.Description != nil {
		m.Description = *u.Description
	}
	if u.Amount != nil {
		m.Amount = *u.Amount
	}
	if u.DueDate != nil {
		m.DueDate = *u.DueDate
	}
}
