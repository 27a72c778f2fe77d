package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
)

type MilestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

func (r *MilestoneRepository) Create(ctx context.Context, m *models.Milestone) error {
	query := `
		INSERT INTO milestones (contract_id, title, description, amount, due_date, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, version, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		m.ContractID, m.Title, m.Description, m.Amount, m.DueDate, m.Status, m.PaymentStatus,
	).Scan(&m.ID, &m.Version, &m.CreatedAt, &m.UpdatedAt)
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	var m models.Milestone
	err := r.db.GetContext(ctx, &m, `SELECT * FROM milestones WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrMilestoneNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MilestoneRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT * FROM milestones WHERE contract_id = $1 ORDER BY due_date, created_at
	`, contractID)
	return milestones, err
}

// UpdateFields обновляет редактируемые клиентом поля вехи с проверкой версии.
func (r *MilestoneRepository) UpdateFields(ctx context.Context, m *models.Milestone) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE milestones
		SET title = $2, description = $3, amount = $4, due_date = $5,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $6
	`, m.ID, m.Title, m.Description, m.Amount, m.DueDate, m.Version)
	if err != nil {
		return fmt.Errorf("milestone repository: update fields %w", err)
	}
	return r.checkVersioned(ctx, res, m.ID)
}

func (r *MilestoneRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE milestones SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
	`, id, status, version)
	if err != nil {
		return fmt.Errorf("milestone repository: update status %w", err)
	}
	return r.checkVersioned(ctx, res, id)
}

// CreateUpdate сохраняет черновик-замену вехи, вытесняя предыдущий.
func (r *MilestoneRepository) CreateUpdate(ctx context.Context, u *models.MilestoneUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO milestone_updates (milestone_id, title, description, amount, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := tx.QueryRowContext(ctx, query,
		u.MilestoneID, u.Title, u.Description, u.Amount, u.DueDate,
	).Scan(&u.ID, &u.CreatedAt); err != nil {
		return fmt.Errorf("milestone repository: create update %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM milestone_updates WHERE milestone_id = $1 AND id <> $2
	`, u.MilestoneID, u.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE milestones SET update_id = $2, updated_at = NOW() WHERE id = $1
	`, u.MilestoneID, u.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *MilestoneRepository) GetUpdate(ctx context.Context, id uuid.UUID) (*models.MilestoneUpdate, error) {
	var u models.MilestoneUpdate
	err := r.db.GetContext(ctx, &u, `SELECT * FROM milestone_updates WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "черновик вехи не найден")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Accept сливает черновик-замену в веху и удаляет его; веха переходит
// в статус accepted. Вся операция в одной транзакции.
func (r *MilestoneRepository) Accept(ctx context.Context, m *models.Milestone, update *models.MilestoneUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE milestones
		SET title = $2, description = $3, amount = $4, due_date = $5, status = $6,
			update_id = NULL, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $7
	`, m.ID, m.Title, m.Description, m.Amount, m.DueDate, models.MilestoneStatusAccepted, m.Version)
	if err != nil {
		return fmt.Errorf("milestone repository: accept %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperror.ErrVersionConflict
	}

	if update != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM milestone_updates WHERE id = $1`, update.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *MilestoneRepository) checkVersioned(ctx context.Context, res sql.Result, id uuid.UUID) error {
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return nil
	}
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM milestones WHERE id = $1`, id); err != nil {
		return err
	}
	if count == 0 {
		return apperror.ErrMilestoneNotFound
	}
	return apperror.ErrVersionConflict
}
