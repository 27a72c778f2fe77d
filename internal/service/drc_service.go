package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/clock"
)

// DrcRepository описывает взаимодействие сервиса с хранилищем DRC.
type DrcRepository interface {
	ManagerLoads(ctx context.Context, now time.Time) ([]models.ManagerLoad, error)
	CreateForwarded(ctx context.Context, f *models.DrcForwardedDispute, disputeVersion int) error
	GetForwardedByID(ctx context.Context, id uuid.UUID) (*models.DrcForwardedDispute, error)
	GetUnsolvedByDispute(ctx context.Context, disputeID uuid.UUID) (*models.DrcForwardedDispute, error)
	Resolve(ctx context.Context, forwardedID uuid.UUID, resolved *models.DrcResolvedDispute) error
}

// UserDirectory отдаёт пользователей для почтовой рассылки вердиктов.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// DrcService передаёт споры менеджерам комиссии по разрешению споров
// и применяет их вердикты.
type DrcService struct {
	drc        DrcRepository
	disputes   DisputeRepository
	contracts  ContractRepository
	milestones MilestoneRepository
	users      UserDirectory
	notifier   Notifier
	clock      clock.Clock
}

func NewDrcService(drc DrcRepository, disputes DisputeRepository, contracts ContractRepository, milestones MilestoneRepository, users UserDirectory, notifier Notifier, clk clock.Clock) *DrcService {
	return &DrcService{
		drc:        drc,
		disputes:   disputes,
		contracts:  contracts,
		milestones: milestones,
		users:      users,
		notifier:   notifier,
		clock:      clk,
	}
}

// Forward передаёт открытый спор менеджеру с наименьшей нагрузкой.
// Кандидаты с исчерпанной недельной квотой отсеиваются; из оставшихся
// выбирается менеджер с минимумом нерешённых дел, при равенстве тот,
// чьё самое старое нерешённое дело дольше всего без движения.
func (s *DrcService) Forward(ctx context.Context, disputeID, actorID uuid.UUID) (*models.DrcForwardedDispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isParty(dispute, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "передать спор в DRC может только сторона спора")
	}
	if dispute.Status != models.DisputeStatusOpen {
		return nil, apperror.Newf(apperror.ErrCodeConflict, "спор в статусе %q нельзя передать в DRC", dispute.Status)
	}
	if _, err := s.drc.GetUnsolvedByDispute(ctx, disputeID); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "спор уже передан в DRC")
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	managerID, err := s.pickManager(ctx)
	if err != nil {
		return nil, err
	}

	forwarded := &models.DrcForwardedDispute{
		DisputeID:        disputeID,
		DisputeManagerID: managerID,
	}
	if err := s.drc.CreateForwarded(ctx, forwarded, dispute.Version); err != nil {
		return nil, err
	}

	s.notifyBoth(ctx, dispute, "Спор передан в DRC",
		"Спор передан менеджеру комиссии по разрешению споров")
	s.notifier.Notify(ctx, managerID, "Новый спор на рассмотрение",
		fmt.Sprintf("Вам передан спор %q", dispute.Title))
	return forwarded, nil
}

// CheckDisputeInDRC сообщает, находится ли спор на рассмотрении комиссии.
func (s *DrcService) CheckDisputeInDRC(ctx context.Context, disputeID uuid.UUID) (bool, error) {
	if _, err := s.drc.GetUnsolvedByDispute(ctx, disputeID); err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ResolveForwardedInput вердикт менеджера.
type ResolveForwardedInput struct {
	Winner       string
	ReturnType   string
	ReturnAmount float64
	Comment      string
}

// ResolveForwarded применяет вердикт назначенного менеджера: передача
// закрывается, спор урегулируется, цель спора возвращается в работу.
func (s *DrcService) ResolveForwarded(ctx context.Context, forwardedID, actorID uuid.UUID, input ResolveForwardedInput) (*models.DrcResolvedDispute, error) {
	forwarded, err := s.drc.GetForwardedByID(ctx, forwardedID)
	if err != nil {
		return nil, err
	}
	if forwarded.DisputeManagerID != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "решить спор может только назначенный менеджер")
	}
	if forwarded.Solved {
		return nil, apperror.New(apperror.ErrCodeConflict, "передача спора уже решена")
	}

	dispute, err := s.disputes.GetByID(ctx, forwarded.DisputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status != models.DisputeStatusDRCForwarded {
		return nil, apperror.Newf(apperror.ErrCodeConflict, "спор в статусе %q не ожидает вердикта", dispute.Status)
	}
	if _, ok := models.ValidDisputeWinners[input.Winner]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "неизвестный победитель %q", input.Winner)
	}
	if _, ok := models.ValidReturnTypes[input.ReturnType]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "неизвестный тип возврата %q", input.ReturnType)
	}

	contract, err := s.contracts.GetByID(ctx, dispute.ContractID)
	if err != nil {
		return nil, err
	}
	var milestone *models.Milestone
	if dispute.MilestoneID != nil {
		milestone, err = s.milestones.GetByID(ctx, *dispute.MilestoneID)
		if err != nil {
			return nil, err
		}
	}
	amount, err := resolveReturnAmount(input.ReturnType, input.ReturnAmount, contract, milestone)
	if err != nil {
		return nil, err
	}

	resolved := &models.DrcResolvedDispute{
		ForwardedID:  forwardedID,
		Winner:       input.Winner,
		ReturnType:   input.ReturnType,
		ReturnAmount: amount,
		Comment:      input.Comment,
	}
	if err := s.drc.Resolve(ctx, forwardedID, resolved); err != nil {
		return nil, err
	}
	if err := s.disputes.UpdateStatus(ctx, dispute.ID, models.DisputeStatusResolved, dispute.Version); err != nil {
		return nil, err
	}
	if err := s.reactivateTarget(ctx, dispute, milestone, contract); err != nil {
		return nil, err
	}

	verdict := fmt.Sprintf("Комиссия вынесла вердикт по спору %q", dispute.Title)
	s.notifyBoth(ctx, dispute, "Вердикт по спору", verdict)
	s.notifier.Notify(ctx, actorID, "Вердикт зафиксирован", verdict)
	s.emailParties(ctx, dispute, verdict)
	return resolved, nil
}

// pickManager выбирает менеджера со свободной квотой и наименьшей
// нагрузкой. Пустой список кандидатов означает исчерпание мощности DRC.
func (s *DrcService) pickManager(ctx context.Context) (uuid.UUID, error) {
	loads, err := s.drc.ManagerLoads(ctx, s.clock.Now())
	if err != nil {
		return uuid.Nil, err
	}

	candidates := loads[:0]
	for _, l := range loads {
		if l.ForwardedInWeek < l.DisputePerWeek {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return uuid.Nil, apperror.ErrNoManagerCapacity
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.UnsolvedCount != b.UnsolvedCount {
			return a.UnsolvedCount < b.UnsolvedCount
		}
		switch {
		case a.OldestUnsolved == nil && b.OldestUnsolved == nil:
		case a.OldestUnsolved == nil:
			return true
		case b.OldestUnsolved == nil:
			return false
		case !a.OldestUnsolved.Equal(*b.OldestUnsolved):
			return a.OldestUnsolved.Before(*b.OldestUnsolved)
		}
		return a.UserID.String() < b.UserID.String()
	})
	return candidates[0].UserID, nil
}

func (s *DrcService) reactivateTarget(ctx context.Context, d *models.Dispute, milestone *models.Milestone, contract *models.Contract) error {
	if milestone != nil {
		if milestone.Status != models.MilestoneStatusInDispute {
			return nil
		}
		return s.milestones.UpdateStatus(ctx, milestone.ID, models.MilestoneStatusActive, milestone.Version)
	}
	if contract.Status != models.ContractStatusInDispute {
		return nil
	}
	return s.contracts.UpdateStatus(ctx, contract.ID, models.ContractStatusActive, contract.Version)
}

func (s *DrcService) notifyBoth(ctx context.Context, d *models.Dispute, title, description string) {
	if d.ClientID != nil {
		s.notifier.Notify(ctx, *d.ClientID, title, description)
	}
	if d.FreelancerID != nil {
		s.notifier.Notify(ctx, *d.FreelancerID, title, description)
	}
}

// emailParties дублирует вердикт письмом обеим сторонам.
func (s *DrcService) emailParties(ctx context.Context, d *models.Dispute, verdict string) {
	for _, id := range []*uuid.UUID{d.ClientID, d.FreelancerID} {
		if id == nil {
			continue
		}
		user, err := s.users.GetByID(ctx, *id)
		if err != nil {
			continue
		}
		s.notifier.Email(ctx, user.Email, "Вердикт по спору",
			fmt.Sprintf("<p>%s</p>", verdict))
	}
}
