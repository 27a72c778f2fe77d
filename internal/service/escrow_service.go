package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/clock"
)

// EscrowRepository описывает взаимодействие сервиса с хранилищем эскроу.
type EscrowRepository interface {
	Create(ctx context.Context, e *models.Escrow) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error)
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Escrow, error)
	GetByMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.Escrow, error)
	GetFlatByContract(ctx context.Context, contractID uuid.UUID) (*models.Escrow, error)
	ConfirmDeposit(ctx context.Context, id uuid.UUID, version int) error
	Release(ctx context.Context, id uuid.UUID, version int, releasedAt time.Time) (*models.Escrow, error)
}

// EscrowService ведёт символический реестр эскроу: резервирование,
// подтверждение депозита и выплату.
type EscrowService struct {
	escrows    EscrowRepository
	contracts  ContractRepository
	milestones MilestoneRepository
	notifier   Notifier
	clock      clock.Clock
}

func NewEscrowService(escrows EscrowRepository, contracts ContractRepository, milestones MilestoneRepository, notifier Notifier, clk clock.Clock) *EscrowService {
	return &EscrowService{
		escrows:    escrows,
		contracts:  contracts,
		milestones: milestones,
		notifier:   notifier,
		clock:      clk,
	}
}

// CreateEscrow резервирует средства под контракт или его веху.
// Помильный контракт требует веху, плоский запрещает её; на каждую цель
// допускается не более одной записи.
func (s *EscrowService) CreateEscrow(ctx context.Context, contractID, actorID uuid.UUID, milestoneID *uuid.UUID, amount float64) (*models.Escrow, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "резервировать средства может только клиент-владелец")
	}
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма эскроу должна быть положительной")
	}

	if contract.MilestoneBased {
		if milestoneID == nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "для помильного контракта требуется веха")
		}
		milestone, err := s.milestones.GetByID(ctx, *milestoneID)
		if err != nil {
			return nil, err
		}
		if milestone.ContractID != contractID {
			return nil, apperror.New(apperror.ErrCodeValidation, "веха принадлежит другому контракту")
		}
		if _, err := s.escrows.GetByMilestone(ctx, *milestoneID); err == nil {
			return nil, apperror.New(apperror.ErrCodeConflict, "для вехи уже есть эскроу-запись")
		} else if !apperror.IsNotFound(err) {
			return nil, err
		}
	} else {
		if milestoneID != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "плоский контракт не допускает эскроу по вехе")
		}
		if _, err := s.escrows.GetFlatByContract(ctx, contractID); err == nil {
			return nil, apperror.New(apperror.ErrCodeConflict, "для контракта уже есть эскроу-запись")
		} else if !apperror.IsNotFound(err) {
			return nil, err
		}
	}

	escrow := &models.Escrow{
		ContractID:  contractID,
		MilestoneID: milestoneID,
		Amount:      amount,
		Status:      models.EscrowStatusPending,
	}
	if err := s.escrows.Create(ctx, escrow); err != nil {
		return nil, err
	}

	if contract.FreelancerID != nil {
		s.notifier.Notify(ctx, *contract.FreelancerID, "Средства зарезервированы",
			"Клиент зарезервировал средства по контракту")
	}
	return escrow, nil
}

// GetEscrow возвращает запись, доступную только сторонам контракта.
func (s *EscrowService) GetEscrow(ctx context.Context, escrowID, actorID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	contract, err := s.contracts.GetByID(ctx, escrow.ContractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) && !isFreelancer(contract, actorID) {
		return nil, apperror.ErrForbidden
	}
	return escrow, nil
}

// ListContractEscrows возвращает все записи контракта для его сторон.
func (s *EscrowService) ListContractEscrows(ctx context.Context, contractID, actorID uuid.UUID) ([]models.Escrow, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) && !isFreelancer(contract, actorID) {
		return nil, apperror.ErrForbidden
	}
	return s.escrows.ListByContract(ctx, contractID)
}

// ConfirmDeposit подтверждает поступление средств. Роль вызывающего
// (финансовый оператор) проверяется на границе API.
func (s *EscrowService) ConfirmDeposit(ctx context.Context, escrowID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if escrow.DepositConfirmed {
		return escrow, nil
	}
	if err := s.escrows.ConfirmDeposit(ctx, escrowID, escrow.Version); err != nil {
		return nil, err
	}

	contract, err := s.contracts.GetByID(ctx, escrow.ContractID)
	if err == nil {
		if contract.ClientID != nil {
			s.notifier.Notify(ctx, *contract.ClientID, "Депозит подтверждён",
				"Поступление средств на эскроу подтверждено")
		}
	}
	return s.escrows.GetByID(ctx, escrowID)
}

// Release выплачивает зарезервированные средства. Выплата возможна при
// подтверждённом депозите, если контракт завершён либо веха завершена
// на ещё не принятом контракте; цель выплаты переходит в оплату.
func (s *EscrowService) Release(ctx context.Context, escrowID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.escrows.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if escrow.Status == models.EscrowStatusReleased {
		return nil, apperror.New(apperror.ErrCodeConflict, "эскроу уже выплачено")
	}
	if !escrow.DepositConfirmed {
		return nil, apperror.New(apperror.ErrCodeConflict, "депозит не подтверждён, выплата невозможна")
	}

	contract, err := s.contracts.GetByID(ctx, escrow.ContractID)
	if err != nil {
		return nil, err
	}

	var milestone *models.Milestone
	if escrow.MilestoneID != nil {
		milestone, err = s.milestones.GetByID(ctx, *escrow.MilestoneID)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case contract.Status == models.ContractStatusCompleted:
	case contract.Status == models.ContractStatusPending &&
		milestone != nil && milestone.Status == models.MilestoneStatusCompleted:
	default:
		return nil, apperror.New(apperror.ErrCodeConflict,
			"выплата доступна только по завершённому контракту или завершённой вехе")
	}

	released, err := s.escrows.Release(ctx, escrowID, escrow.Version, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.notifyRelease(ctx, contract)
	return released, nil
}

// IsFulfilled проверяет, покрывают ли эскроу-записи обязательства
// контракта: по каждой вехе для помильного, по сумме контракта для
// плоского.
func (s *EscrowService) IsFulfilled(ctx context.Context, contractID uuid.UUID) (bool, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return false, err
	}

	if contract.MilestoneBased {
		milestones, err := s.milestones.ListByContract(ctx, contractID)
		if err != nil {
			return false, err
		}
		escrows, err := s.escrows.ListByContract(ctx, contractID)
		if err != nil {
			return false, err
		}
		covered := make(map[uuid.UUID]float64, len(escrows))
		for _, e := range escrows {
			if e.MilestoneID != nil {
				covered[*e.MilestoneID] = e.Amount
			}
		}
		for _, m := range milestones {
			if covered[m.ID] < m.Amount {
				return false, nil
			}
		}
		return true, nil
	}

	escrow, err := s.escrows.GetFlatByContract(ctx, contractID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return escrow.Amount >= contract.AmountAgreed, nil
}

// HasRecords сообщает, есть ли у контракта хотя бы одна эскроу-запись.
func (s *EscrowService) HasRecords(ctx context.Context, contractID uuid.UUID) (bool, error) {
	escrows, err := s.escrows.ListByContract(ctx, contractID)
	if err != nil {
		return false, err
	}
	return len(escrows) > 0, nil
}

func (s *EscrowService) notifyRelease(ctx context.Context, contract *models.Contract) {
	if contract.FreelancerID != nil {
		s.notifier.Notify(ctx, *contract.FreelancerID, "Средства выплачены",
			"Эскроу по контракту выплачено, оплата в обработке")
	}
	if contract.ClientID != nil {
		s.notifier.Notify(ctx, *contract.ClientID, "Средства выплачены",
			"Эскроу по контракту переведено исполнителю")
	}
}
