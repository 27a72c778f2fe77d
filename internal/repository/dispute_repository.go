package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
)

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create создаёт спор и в той же транзакции переводит его цель
// (веху либо контракт) в inDispute с проверкой версии цели.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute, targetVersion int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO disputes (title, description, contract_id, milestone_id, client_id,
			freelancer_id, created_by, return_type, return_amount, status,
			response_deadline, got_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE)
		RETURNING id, version, created_at, updated_at
	`
	if err := tx.QueryRowContext(ctx, query,
		d.Title, d.Description, d.ContractID, d.MilestoneID, d.ClientID,
		d.FreelancerID, d.CreatedBy, d.ReturnType, d.ReturnAmount, d.Status,
		d.ResponseDeadline,
	).Scan(&d.ID, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("dispute repository: create %w", err)
	}

	var res sql.Result
	if d.MilestoneID != nil {
		res, err = tx.ExecContext(ctx, `
			UPDATE milestones SET status = $2, version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $3
		`, *d.MilestoneID, models.MilestoneStatusInDispute, targetVersion)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE contracts SET status = $2, version = version + 1, updated_at = NOW()
			WHERE id = $1 AND version = $3
		`, d.ContractID, models.ContractStatusInDispute, targetVersion)
	}
	if err != nil {
		return fmt.Errorf("dispute repository: mark target in dispute %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperror.ErrVersionConflict
	}

	return tx.Commit()
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrDisputeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// HasActiveForContract проверяет наличие активного спора по контракту в целом.
func (r *DisputeRepository) HasActiveForContract(ctx context.Context, contractID uuid.UUID) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM disputes
		WHERE contract_id = $1 AND milestone_id IS NULL AND status = ANY($2)
	`, contractID, pq.Array(models.ActiveDisputeStatuses))
	return count > 0, err
}

// HasActiveForMilestone проверяет наличие активного спора по вехе.
func (r *DisputeRepository) HasActiveForMilestone(ctx context.Context, milestoneID uuid.UUID) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM disputes WHERE milestone_id = $1 AND status = ANY($2)
	`, milestoneID, pq.Array(models.ActiveDisputeStatuses))
	return count > 0, err
}

func (r *DisputeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
	`, id, status, version)
	if err != nil {
		return fmt.Errorf("dispute repository: update status %w", err)
	}
	return r.checkVersioned(ctx, res, id)
}

// MarkResponded фиксирует получение ответа второй стороны.
func (r *DisputeRepository) MarkResponded(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET got_response = TRUE, version = version + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperror.ErrDisputeNotFound
	}
	return nil
}

// ListExpiredOpen возвращает открытые споры без ответа с истекшим дедлайном.
// Предикат повторяет условие автозакрытия, поэтому повторный прогон
// планировщика не находит уже обработанные споры.
func (r *DisputeRepository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes
		WHERE status = $1 AND got_response = FALSE AND response_deadline < $2
		ORDER BY response_deadline
		LIMIT $3
	`, models.DisputeStatusOpen, now, limit)
	return disputes, err
}

// MarkAutoResolved автозакрывает спор. Условие в WHERE делает операцию
// идемпотентной: спор, уже ушедший из open, не трогается.
func (r *DisputeRepository) MarkAutoResolved(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $3 AND got_response = FALSE AND response_deadline < $4
	`, id, models.DisputeStatusAutoResolved, models.DisputeStatusOpen, now)
	if err != nil {
		return false, fmt.Errorf("dispute repository: auto resolve %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (r *DisputeRepository) CreateResponse(ctx context.Context, resp *models.DisputeResponse) error {
	query := `
		INSERT INTO dispute_responses (dispute_id, responded_by, response, return_type,
			return_amount, response_deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		resp.DisputeID, resp.RespondedBy, resp.Response, resp.ReturnType,
		resp.ReturnAmount, resp.ResponseDeadline,
	).Scan(&resp.ID, &resp.CreatedAt)
}

func (r *DisputeRepository) GetResponseByDispute(ctx context.Context, disputeID uuid.UUID) (*models.DisputeResponse, error) {
	var resp models.DisputeResponse
	err := r.db.GetContext(ctx, &resp, `
		SELECT * FROM dispute_responses WHERE dispute_id = $1 ORDER BY created_at DESC LIMIT 1
	`, disputeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "ответ на спор не найден")
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddDocument прикрепляет файл-доказательство к спору или ответу.
func (r *DisputeRepository) AddDocument(ctx context.Context, doc *models.SupportingDocument) error {
	query := `
		INSERT INTO supporting_documents (dispute_id, response_id, uploaded_by, file_name, file_path, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		doc.DisputeID, doc.ResponseID, doc.UploadedBy, doc.FileName, doc.FilePath, doc.SizeBytes,
	).Scan(&doc.ID, &doc.CreatedAt)
}

// ListDocumentsByDispute возвращает вложения самого спора и его ответов.
func (r *DisputeRepository) ListDocumentsByDispute(ctx context.Context, disputeID uuid.UUID) ([]models.SupportingDocument, error) {
	var docs []models.SupportingDocument
	err := r.db.SelectContext(ctx, &docs, `
		SELECT * FROM supporting_documents
		WHERE dispute_id = $1
		   OR response_id IN (SELECT id FROM dispute_responses WHERE dispute_id = $1)
		ORDER BY created_at
	`, disputeID)
	return docs, err
}

// ClearDocuments удаляет все текущие вложения спора, включая вложения
// ответов, и возвращает их для последующей очистки файлового хранилища.
func (r *DisputeRepository) ClearDocuments(ctx context.Context, disputeID uuid.UUID) ([]models.SupportingDocument, error) {
	var docs []models.SupportingDocument
	err := r.db.SelectContext(ctx, &docs, `
		DELETE FROM supporting_documents
		WHERE dispute_id = $1
		   OR response_id IN (SELECT id FROM dispute_responses WHERE dispute_id = $1)
		RETURNING *
	`, disputeID)
	return docs, err
}

func (r *DisputeRepository) checkVersioned(ctx context.Context, res sql.Result, id uuid.UUID) error {
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return nil
	}
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM disputes WHERE id = $1`, id); err != nil {
		return err
	}
	if count == 0 {
		return apperror.ErrDisputeNotFound
	}
	return apperror.ErrVersionConflict
}
