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

type DrcRepository struct {
	db *sqlx.DB
}

func NewDrcRepository(db *sqlx.DB) *DrcRepository {
	return &DrcRepository{db: db}
}

// ManagerLoads возвращает нагрузку каждого менеджера споров: квоту,
// количество переданных дел за скользящую неделю, число нерешённых дел
// и время последнего обновления самого старого нерешённого дела.
func (r *DrcRepository) ManagerLoads(ctx context.Context, now time.Time) ([]models.ManagerLoad, error) {
	var loads []models.ManagerLoad
	err := r.db.SelectContext(ctx, &loads, `
		SELECT p.user_id,
			p.dispute_per_week,
			COUNT(f.id) FILTER (WHERE f.created_at > $1) AS forwarded_in_week,
			COUNT(f.id) FILTER (WHERE NOT f.solved) AS unsolved_count,
			MIN(f.updated_at) FILTER (WHERE NOT f.solved) AS oldest_unsolved
		FROM dispute_manager_profiles p
		LEFT JOIN drc_forwarded_disputes f ON f.dispute_manager_id = p.user_id
		GROUP BY p.user_id, p.dispute_per_week
	`, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("drc repository: manager loads %w", err)
	}
	return loads, nil
}

// CreateForwarded создаёт передачу спора и в той же транзакции переводит
// спор в drc_forwarded с проверкой его версии.
func (r *DrcRepository) CreateForwarded(ctx context.Context, f *models.DrcForwardedDispute, disputeVersion int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO drc_forwarded_disputes (dispute_id, dispute_manager_id, solved)
		VALUES ($1, $2, FALSE)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRowContext(ctx, query, f.DisputeID, f.DisputeManagerID).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return fmt.Errorf("drc repository: create forwarded %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE disputes SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
	`, f.DisputeID, models.DisputeStatusDRCForwarded, disputeVersion)
	if err != nil {
		return fmt.Errorf("drc repository: mark dispute forwarded %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperror.ErrVersionConflict
	}

	return tx.Commit()
}

func (r *DrcRepository) GetForwardedByID(ctx context.Context, id uuid.UUID) (*models.DrcForwardedDispute, error) {
	var f models.DrcForwardedDispute
	err := r.db.GetContext(ctx, &f, `SELECT * FROM drc_forwarded_disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "передача спора не найдена")
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetUnsolvedByDispute возвращает открытую передачу спора, если она есть.
func (r *DrcRepository) GetUnsolvedByDispute(ctx context.Context, disputeID uuid.UUID) (*models.DrcForwardedDispute, error) {
	var f models.DrcForwardedDispute
	err := r.db.GetContext(ctx, &f, `
		SELECT * FROM drc_forwarded_disputes WHERE dispute_id = $1 AND NOT solved
		ORDER BY created_at DESC LIMIT 1
	`, disputeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "передача спора не найдена")
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Resolve отмечает передачу решённой и сохраняет терминальную запись
// с вердиктом менеджера в одной транзакции.
func (r *DrcRepository) Resolve(ctx context.Context, forwardedID uuid.UUID, resolved *models.DrcResolvedDispute) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE drc_forwarded_disputes SET solved = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT solved
	`, forwardedID)
	if err != nil {
		return fmt.Errorf("drc repository: mark solved %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperror.New(apperror.ErrCodeConflict, "передача спора уже решена")
	}

	query := `
		INSERT INTO drc_resolved_disputes (forwarded_id, winner, return_type, return_amount, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := tx.QueryRowContext(ctx, query,
		resolved.ForwardedID, resolved.Winner, resolved.ReturnType,
		resolved.ReturnAmount, resolved.Comment,
	).Scan(&resolved.ID, &resolved.CreatedAt); err != nil {
		return fmt.Errorf("drc repository: create resolved %w", err)
	}

	return tx.Commit()
}
