package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет пользователя и его профильную запись в одной транзакции.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (email, password_hash, role, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("user repository: create %w", err)
	}

	// Профильная запись по роли: роль выводится из того, в какой таблице
	// лежит идентификатор пользователя.
	switch user.Role {
	case models.RoleClient:
		_, err = tx.ExecContext(ctx, `INSERT INTO client_profiles (user_id) VALUES ($1)`, user.ID)
	case models.RoleFreelancer:
		_, err = tx.ExecContext(ctx, `INSERT INTO freelancer_profiles (user_id) VALUES ($1)`, user.ID)
	case models.RoleDisputeManager:
		_, err = tx.ExecContext(ctx, `INSERT INTO dispute_manager_profiles (user_id) VALUES ($1)`, user.ID)
	}
	if err != nil {
		return fmt.Errorf("user repository: create profile %w", err)
	}

	return tx.Commit()
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// GetFreelancerProfile возвращает профиль фрилансера вместе с навыками.
func (r *UserRepository) GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	var row struct {
		models.FreelancerProfile
		SkillsRaw []byte `db:"skills"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT user_id, professional_title, first_name, last_name, hourly_rate, verified, updated_at, skills
		FROM freelancer_profiles WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	profile := row.FreelancerProfile
	if len(row.SkillsRaw) > 0 {
		if err := json.Unmarshal(row.SkillsRaw, &profile.Skills); err != nil {
			return nil, fmt.Errorf("user repository: decode skills %w", err)
		}
	}
	return &profile, nil
}

// UpdateFreelancerSkills сохраняет типизированный список навыков.
func (r *UserRepository) UpdateFreelancerSkills(ctx context.Context, userID uuid.UUID, skills []models.Skill) error {
	raw, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("user repository: encode skills %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE freelancer_profiles SET skills = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, raw)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperror.ErrUserNotFound
	}
	return nil
}

// GetDisputeManagerProfile возвращает профиль менеджера споров с его квотой.
func (r *UserRepository) GetDisputeManagerProfile(ctx context.Context, userID uuid.UUID) (*models.DisputeManagerProfile, error) {
	var profile models.DisputeManagerProfile
	err := r.db.GetContext(ctx, &profile, `
		SELECT user_id, full_name, dispute_per_week, updated_at
		FROM dispute_manager_profiles WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Delete удаляет пользователя. Ссылки из контрактов и споров обнуляются
// в той же транзакции: финансовая история переживает удаление аккаунта.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	nullifyQueries := []string{
		`UPDATE contracts SET client_id = NULL, updated_at = NOW() WHERE client_id = $1`,
		`UPDATE contracts SET freelancer_id = NULL, updated_at = NOW() WHERE freelancer_id = $1`,
		`UPDATE disputes SET client_id = NULL, updated_at = NOW() WHERE client_id = $1`,
		`UPDATE disputes SET freelancer_id = NULL, updated_at = NOW() WHERE freelancer_id = $1`,
	}
	for _, q := range nullifyQueries {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("user repository: nullify references %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user repository: delete %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperror.ErrUserNotFound
	}

	return tx.Commit()
}
