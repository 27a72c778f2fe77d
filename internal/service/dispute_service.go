package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/clock"
)

// DisputeRepository описывает взаимодействие сервиса с хранилищем споров.
type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute, targetVersion int) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	HasActiveForContract(ctx context.Context, contractID uuid.UUID) (bool, error)
	HasActiveForMilestone(ctx context.Context, milestoneID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) error
	MarkResponded(ctx context.Context, id uuid.UUID) error
	CreateResponse(ctx context.Context, resp *models.DisputeResponse) error
	GetResponseByDispute(ctx context.Context, disputeID uuid.UUID) (*models.DisputeResponse, error)
	AddDocument(ctx context.Context, doc *models.SupportingDocument) error
	ListDocumentsByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.SupportingDocument, error)
	ClearDocuments(ctx context.Context, disputeID uuid.UUID) ([]models.SupportingDocument, error)
}

// DisputeService реализует жизненный цикл спора: открытие, ответ второй
// стороны, отмену и прямое урегулирование.
type DisputeService struct {
	disputes   DisputeRepository
	contracts  ContractRepository
	milestones MilestoneRepository
	notifier   Notifier
	clock      clock.Clock
	window     time.Duration
}

func NewDisputeService(disputes DisputeRepository, contracts ContractRepository, milestones MilestoneRepository, notifier Notifier, clk clock.Clock, responseWindow time.Duration) *DisputeService {
	return &DisputeService{
		disputes:   disputes,
		contracts:  contracts,
		milestones: milestones,
		notifier:   notifier,
		clock:      clk,
		window:     responseWindow,
	}
}

// CreateDisputeInput параметры открытия спора.
type CreateDisputeInput struct {
	Title        string
	Description  string
	ContractID   uuid.UUID
	MilestoneID  *uuid.UUID
	ReturnType   string
	ReturnAmount float64
}

// CreateDispute открывает спор по контракту или его вехе. Цель спора
// переводится в inDispute, на неё допускается только один активный спор.
func (s *DisputeService) CreateDispute(ctx context.Context, actorID uuid.UUID, input CreateDisputeInput) (*models.Dispute, error) {
	contract, err := s.contracts.GetByID(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}
	if !isClient(contract, actorID) && !isFreelancer(contract, actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "открыть спор может только сторона контракта")
	}
	if _, ok := models.ValidReturnTypes[input.ReturnType]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "неизвестный тип возврата %q", input.ReturnType)
	}

	var milestone *models.Milestone
	if input.MilestoneID != nil {
		milestone, err = s.milestones.GetByID(ctx, *input.MilestoneID)
		if err != nil {
			return nil, err
		}
		if milestone.ContractID != input.ContractID {
			return nil, apperror.New(apperror.ErrCodeValidation, "веха принадлежит другому контракту")
		}
		if !models.CanTransit(models.MilestoneTransitions, milestone.Status, models.MilestoneStatusInDispute) {
			return nil, apperror.Newf(apperror.ErrCodeConflict, "веха в статусе %q не подлежит оспариванию", milestone.Status)
		}
		active, err := s.disputes.HasActiveForMilestone(ctx, milestone.ID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, apperror.New(apperror.ErrCodeConflict, "по вехе уже идёт спор")
		}
	} else {
		if !models.CanTransit(models.ContractTransitions, contract.Status, models.ContractStatusInDispute) {
			return nil, apperror.Newf(apperror.ErrCodeConflict, "контракт в статусе %q не подлежит оспариванию", contract.Status)
		}
		active, err := s.disputes.HasActiveForContract(ctx, input.ContractID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, apperror.New(apperror.ErrCodeConflict, "по контракту уже идёт спор")
		}
	}

	amount, err := resolveReturnAmount(input.ReturnType, input.ReturnAmount, contract, milestone)
	if err != nil {
		return nil, err
	}

	deadline := s.clock.Now().Add(s.window)
	dispute := &models.Dispute{
		Title:            input.Title,
		Description:      input.Description,
		ContractID:       input.ContractID,
		MilestoneID:      input.MilestoneID,
		ClientID:         contract.ClientID,
		FreelancerID:     contract.FreelancerID,
		CreatedBy:        actorID,
		ReturnType:       input.ReturnType,
		ReturnAmount:     amount,
		Status:           models.DisputeStatusOpen,
		ResponseDeadline: deadline,
	}
	targetVersion := contract.Version
	if milestone != nil {
		targetVersion = milestone.Version
	}
	if err := s.disputes.Create(ctx, dispute, targetVersion); err != nil {
		return nil, err
	}

	s.notifyBothParties(ctx, dispute, "Открыт спор",
		"По контракту открыт спор, вторая сторона должна ответить до истечения срока")
	return dispute, nil
}

// GetDispute возвращает спор его сторонам.
func (s *DisputeService) GetDispute(ctx context.Context, disputeID, actorID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isParty(dispute, actorID) {
		return nil, apperror.ErrForbidden
	}
	return dispute, nil
}

// RespondInput параметры ответа на спор.
type RespondInput struct {
	Response     string
	ReturnType   string
	ReturnAmount float64
}

// Respond фиксирует ответ второй стороны на открытый спор. Сам статус
// спора не меняется: урегулирование идёт через ResolveDirectly или DRC.
func (s *DisputeService) Respond(ctx context.Context, disputeID, actorID uuid.UUID, input RespondInput) (*models.DisputeResponse, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isParty(dispute, actorID) {
		return nil, apperror.ErrForbidden
	}
	if dispute.CreatedBy == actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отвечать на спор может только вторая сторона")
	}
	if dispute.Status != models.DisputeStatusOpen {
		return nil, apperror.Newf(apperror.ErrCodeConflict, "спор в статусе %q не принимает ответы", dispute.Status)
	}
	if dispute.GotResponse {
		return nil, apperror.New(apperror.ErrCodeConflict, "по спору уже получен ответ второй стороны")
	}
	if _, ok := models.ValidDisputeResponses[input.Response]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "неизвестный ответ %q", input.Response)
	}
	if _, ok := models.ValidReturnTypes[input.ReturnType]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "неизвестный тип возврата %q", input.ReturnType)
	}

	contract, milestone, err := s.disputeTarget(ctx, dispute)
	if err != nil {
		return nil, err
	}
	amount, err := resolveReturnAmount(input.ReturnType, input.ReturnAmount, contract, milestone)
	if err != nil {
		return nil, err
	}

	resp := &models.DisputeResponse{
		DisputeID:        disputeID,
		RespondedBy:      actorID,
		Response:         input.Response,
		ReturnType:       input.ReturnType,
		ReturnAmount:     amount,
		ResponseDeadline: dispute.ResponseDeadline,
	}
	if err := s.disputes.CreateResponse(ctx, resp); err != nil {
		return nil, err
	}
	if err := s.disputes.MarkResponded(ctx, disputeID); err != nil {
		return nil, err
	}

	s.notifyBothParties(ctx, dispute, "Ответ на спор",
		"Вторая сторона ответила на спор")
	return resp, nil
}

// Cancel отменяет спор по инициативе его автора и возвращает цель
// в рабочий статус.
func (s *DisputeService) Cancel(ctx context.Context, disputeID, actorID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.CreatedBy != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отменить спор может только его автор")
	}
	if dispute.Status != models.DisputeStatusOpen {
		return nil, apperror.Newf(apperror.ErrCodeConflict, "спор в статусе %q нельзя отменить", dispute.Status)
	}

	if err := s.disputes.UpdateStatus(ctx, disputeID, models.DisputeStatusCancelled, dispute.Version); err != nil {
		return nil, err
	}
	if err := s.reactivateTarget(ctx, dispute); err != nil {
		return nil, err
	}

	s.notifyBothParties(ctx, dispute, "Спор отменён", "Автор отозвал спор")
	return s.disputes.GetByID(ctx, disputeID)
}

// ResolveDirectly закрывает спор соглашением сторон без передачи в DRC.
func (s *DisputeService) ResolveDirectly(ctx context.Context, disputeID, actorID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isParty(dispute, actorID) {
		return nil, apperror.ErrForbidden
	}
	if dispute.Status != models.DisputeStatusOpen {
		return nil, apperror.Newf(apperror.ErrCodeConflict, "спор в статусе %q нельзя урегулировать", dispute.Status)
	}

	if err := s.disputes.UpdateStatus(ctx, disputeID, models.DisputeStatusResolved, dispute.Version); err != nil {
		return nil, err
	}
	if err := s.reactivateTarget(ctx, dispute); err != nil {
		return nil, err
	}

	s.notifyBothParties(ctx, dispute, "Спор урегулирован", "Стороны пришли к соглашению")
	return s.disputes.GetByID(ctx, disputeID)
}

// AttachDocument прикрепляет уже сохранённый файл-доказательство к спору.
func (s *DisputeService) AttachDocument(ctx context.Context, disputeID, actorID uuid.UUID, fileName, filePath string, sizeBytes int64) (*models.SupportingDocument, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isParty(dispute, actorID) {
		return nil, apperror.ErrForbidden
	}

	doc := &models.SupportingDocument{
		DisputeID:  &disputeID,
		UploadedBy: actorID,
		FileName:   fileName,
		FilePath:   filePath,
		SizeBytes:  sizeBytes,
	}
	if err := s.disputes.AddDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// AttachResponseDocument прикрепляет файл-доказательство к ответу на спор.
func (s *DisputeService) AttachResponseDocument(ctx context.Context, disputeID, actorID uuid.UUID, fileName, filePath string, sizeBytes int64) (*models.SupportingDocument, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isParty(dispute, actorID) {
		return nil, apperror.ErrForbidden
	}
	resp, err := s.disputes.GetResponseByDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	doc := &models.SupportingDocument{
		ResponseID: &resp.ID,
		UploadedBy: actorID,
		FileName:   fileName,
		FilePath:   filePath,
		SizeBytes:  sizeBytes,
	}
	if err := s.disputes.AddDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments возвращает вложения спора его сторонам.
func (s *DisputeService) ListDocuments(ctx context.Context, disputeID, actorID uuid.UUID) ([]models.SupportingDocument, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isParty(dispute, actorID) {
		return nil, apperror.ErrForbidden
	}
	return s.disputes.ListDocumentsByDispute(ctx, disputeID)
}

// ClearDocuments удаляет вложения спора и возвращает их для очистки
// файлового хранилища.
func (s *DisputeService) ClearDocuments(ctx context.Context, disputeID, actorID uuid.UUID) ([]models.SupportingDocument, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isParty(dispute, actorID) {
		return nil, apperror.ErrForbidden
	}
	return s.disputes.ClearDocuments(ctx, disputeID)
}

func (s *DisputeService) disputeTarget(ctx context.Context, d *models.Dispute) (*models.Contract, *models.Milestone, error) {
	contract, err := s.contracts.GetByID(ctx, d.ContractID)
	if err != nil {
		return nil, nil, err
	}
	var milestone *models.Milestone
	if d.MilestoneID != nil {
		milestone, err = s.milestones.GetByID(ctx, *d.MilestoneID)
		if err != nil {
			return nil, nil, err
		}
	}
	return contract, milestone, nil
}

// reactivateTarget возвращает цель спора из inDispute в active.
func (s *DisputeService) reactivateTarget(ctx context.Context, d *models.Dispute) error {
	if d.MilestoneID != nil {
		milestone, err := s.milestones.GetByID(ctx, *d.MilestoneID)
		if err != nil {
			return err
		}
		if milestone.Status != models.MilestoneStatusInDispute {
			return nil
		}
		return s.milestones.UpdateStatus(ctx, milestone.ID, models.MilestoneStatusActive, milestone.Version)
	}

	contract, err := s.contracts.GetByID(ctx, d.ContractID)
	if err != nil {
		return err
	}
	if contract.Status != models.ContractStatusInDispute {
		return nil
	}
	return s.contracts.UpdateStatus(ctx, contract.ID, models.ContractStatusActive, contract.Version)
}

func (s *DisputeService) notifyBothParties(ctx context.Context, d *models.Dispute, title, description string) {
	if d.ClientID != nil {
		s.notifier.Notify(ctx, *d.ClientID, title, description)
	}
	if d.FreelancerID != nil {
		s.notifier.Notify(ctx, *d.FreelancerID, title, description)
	}
}

// resolveReturnAmount вычисляет сумму возврата: полный возврат берёт
// сумму цели спора, частичный требует явной положительной суммы.
func resolveReturnAmount(returnType string, requested float64, contract *models.Contract, milestone *models.Milestone) (float64, error) {
	target := contract.AmountAgreed
	if milestone != nil {
		target = milestone.Amount
	}

	if returnType == models.ReturnTypeFull {
		return target, nil
	}
	if requested <= 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "сумма частичного возврата должна быть положительной")
	}
	if requested > target {
		return 0, apperror.New(apperror.ErrCodeValidation, "сумма возврата превышает сумму цели спора")
	}
	return requested, nil
}

func isParty(d *models.Dispute, userID uuid.UUID) bool {
	if d.ClientID != nil && *d.ClientID == userID {
		return true
	}
	if d.FreelancerID != nil && *d.FreelancerID == userID {
		return true
	}
	return false
}
