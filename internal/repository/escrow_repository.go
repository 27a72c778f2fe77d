package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
)

type EscrowRepository struct {
	db *sqlx.DB
}

func NewEscrowRepository(db *sqlx.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

func (r *EscrowRepository) Create(ctx context.Context, e *models.Escrow) error {
	query := `
		INSERT INTO escrows (contract_id, milestone_id, amount, status, deposit_confirmed)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, version, created_at
	`
	return r.db.QueryRowContext(ctx, query, e.ContractID, e.MilestoneID, e.Amount, e.Status).
		Scan(&e.ID, &e.Version, &e.CreatedAt)
}

func (r *EscrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error) {
	var e models.Escrow
	err := r.db.GetContext(ctx, &e, `SELECT * FROM escrows WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EscrowRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Escrow, error) {
	var escrows []models.Escrow
	err := r.db.SelectContext(ctx, &escrows, `
		SELECT * FROM escrows WHERE contract_id = $1 ORDER BY created_at
	`, contractID)
	return escrows, err
}

// GetByMilestone возвращает единственную эскроу-запись вехи.
func (r *EscrowRepository) GetByMilestone(ctx context.Context, milestoneID uuid.UUID) (*models.Escrow, error) {
	var e models.Escrow
	err := r.db.GetContext(ctx, &e, `SELECT * FROM escrows WHERE milestone_id = $1`, milestoneID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetFlatByContract возвращает эскроу-запись контракта без вех.
func (r *EscrowRepository) GetFlatByContract(ctx context.Context, contractID uuid.UUID) (*models.Escrow, error) {
	var e models.Escrow
	err := r.db.GetContext(ctx, &e, `
		SELECT * FROM escrows WHERE contract_id = $1 AND milestone_id IS NULL
	`, contractID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrEscrowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ConfirmDeposit выставляет флаг подтверждения депозита.
// Права вызывающего проверяет API-слой, хранилище доверяет ему.
func (r *EscrowRepository) ConfirmDeposit(ctx context.Context, id uuid.UUID, version int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE escrows SET deposit_confirmed = TRUE, version = version + 1
		WHERE id = $1 AND version = $2
	`, id, version)
	if err != nil {
		return fmt.Errorf("escrow repository: confirm deposit %w", err)
	}
	return r.checkVersioned(ctx, res, id)
}

// Release переводит запись в статус Released и в той же транзакции
// помечает оплату цели (вехи либо контракта) как in_progress.
func (r *EscrowRepository) Release(ctx context.Context, id uuid.UUID, version int, releasedAt time.Time) (*models.Escrow, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var e models.Escrow
	err = tx.GetContext(ctx, &e, `
		UPDATE escrows SET status = $2, released_at = $3, version = version + 1
		WHERE id = $1 AND version = $4
		RETURNING *
	`, id, models.EscrowStatusReleased, releasedAt, version)
	if errors.Is(err, sql.ErrNoRows) {
		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM escrows WHERE id = $1`, id); err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, apperror.ErrEscrowNotFound
		}
		return nil, apperror.ErrVersionConflict
	}
	if err != nil {
		return nil, fmt.Errorf("escrow repository: release %w", err)
	}

	if e.MilestoneID != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE milestones SET payment_status = $2, version = version + 1, updated_at = NOW()
			WHERE id = $1
		`, *e.MilestoneID, models.PaymentStatusInProgress)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE contracts SET payment_status = $2, version = version + 1, updated_at = NOW()
			WHERE id = $1
		`, e.ContractID, models.PaymentStatusInProgress)
	}
	if err != nil {
		return nil, fmt.Errorf("escrow repository: mark payment in progress %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EscrowRepository) checkVersioned(ctx context.Context, res sql.Result, id uuid.UUID) error {
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return nil
	}
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM escrows WHERE id = $1`, id); err != nil {
		return err
	}
	if count == 0 {
		return apperror.ErrEscrowNotFound
	}
	return apperror.ErrVersionConflict
}
