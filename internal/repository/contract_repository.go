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

type ContractRepository struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, c *models.Contract) error {
	query := `
		INSERT INTO contracts (client_id, freelancer_id, project_id, terms, payment_terms,
			start_date, end_date, amount_agreed, milestone_based, hourly,
			freelancer_accepted_terms, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11, $12)
		RETURNING id, version, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		c.ClientID, c.FreelancerID, c.ProjectID, c.Terms, c.PaymentTerms,
		c.StartDate, c.EndDate, c.AmountAgreed, c.MilestoneBased, c.Hourly,
		c.Status, c.PaymentStatus,
	).Scan(&c.ID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
}

func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	var c models.Contract
	err := r.db.GetContext(ctx, &c, `SELECT * FROM contracts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateTerms обновляет редактируемые клиентом поля контракта.
// Сравнение версии защищает от одновременных изменений.
func (r *ContractRepository) UpdateTerms(ctx context.Context, c *models.Contract) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contracts
		SET terms = $2, payment_terms = $3, start_date = $4, end_date = $5,
			amount_agreed = $6, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $7
	`, c.ID, c.Terms, c.PaymentTerms, c.StartDate, c.EndDate, c.AmountAgreed, c.Version)
	if err != nil {
		return fmt.Errorf("contract repository: update terms %w", err)
	}
	return r.checkVersioned(ctx, res, c.ID)
}

// UpdateStatus переводит контракт в новый статус с проверкой версии.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, version int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE contracts SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
	`, id, status, version)
	if err != nil {
		return fmt.Errorf("contract repository: update status %w", err)
	}
	return r.checkVersioned(ctx, res, id)
}

// CreateUpdate сохраняет черновик-замену и привязывает его к контракту.
func (r *ContractRepository) CreateUpdate(ctx context.Context, u *models.ContractUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO contract_updates (contract_id, terms, payment_terms, start_date, end_date, amount_agreed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	if err := tx.QueryRowContext(ctx, query,
		u.ContractID, u.Terms, u.PaymentTerms, u.StartDate, u.EndDate, u.AmountAgreed,
	).Scan(&u.ID, &u.CreatedAt); err != nil {
		return fmt.Errorf("contract repository: create update %w", err)
	}

	// Старый черновик, если был, замещается новым.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM contract_updates WHERE contract_id = $1 AND id <> $2
	`, u.ContractID, u.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE contracts SET update_id = $2, updated_at = NOW() WHERE id = $1
	`, u.ContractID, u.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ContractRepository) GetUpdate(ctx context.Context, id uuid.UUID) (*models.ContractUpdate, error) {
	var u models.ContractUpdate
	err := r.db.GetContext(ctx, &u, `SELECT * FROM contract_updates WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "черновик контракта не найден")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Accept фиксирует принятие контракта фрилансером: сливает черновик-замену
// в оригинал, удаляет черновик и повышает ожидающие вехи до принятых.
// Вся операция выполняется в одной транзакции.
func (r *ContractRepository) Accept(ctx context.Context, c *models.Contract, update *models.ContractUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE contracts
		SET terms = $2, payment_terms = $3, start_date = $4, end_date = $5, amount_agreed = $6,
			freelancer_accepted_terms = TRUE, status = $7, update_id = NULL,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $8
	`, c.ID, c.Terms, c.PaymentTerms, c.StartDate, c.EndDate, c.AmountAgreed,
		models.ContractStatusAccepted, c.Version)
	if err != nil {
		return fmt.Errorf("contract repository: accept %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperror.ErrVersionConflict
	}

	if update != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM contract_updates WHERE id = $1`, update.ID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE milestones SET status = $2, version = version + 1, updated_at = NOW()
		WHERE contract_id = $1 AND status = $3
	`, c.ID, models.MilestoneStatusAccepted, models.MilestoneStatusPending); err != nil {
		return fmt.Errorf("contract repository: promote milestones %w", err)
	}

	return tx.Commit()
}

// HasActiveBetween проверяет наличие действующего контракта между
// фрилансером и клиентом.
func (r *ContractRepository) HasActiveBetween(ctx context.Context, freelancerID, clientID uuid.UUID) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM contracts
		WHERE freelancer_id = $1 AND client_id = $2 AND status = $3
	`, freelancerID, clientID, models.ContractStatusActive)
	return count > 0, err
}

// checkVersioned различает потерянную гонку версий и отсутствие записи.
func (r *ContractRepository) checkVersioned(ctx context.Context, res sql.Result, id uuid.UUID) error {
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return nil
	}
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM contracts WHERE id = $1`, id); err != nil {
		return err
	}
	if count == 0 {
		return apperror.ErrContractNotFound
	}
	return apperror.ErrVersionConflict
}
