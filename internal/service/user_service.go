package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
)

// UserService отдаёт профили и управляет учётной записью.
type UserService struct {
	users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

// GetUser возвращает пользователя по идентификатору.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetFreelancerProfile возвращает профиль фрилансера с навыками.
func (s *UserService) GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleFreelancer {
		return nil, apperror.New(apperror.ErrCodeValidation, "пользователь не является фрилансером")
	}
	return s.users.GetFreelancerProfile(ctx, userID)
}

// UpdateSkills заменяет список навыков фрилансера. Навык с пустым
// названием отбрасывается целиком, а не молча исправляется.
func (s *UserService) UpdateSkills(ctx context.Context, actorID uuid.UUID, skills []models.Skill) error {
	for _, skill := range skills {
		if skill.Name == "" {
			return apperror.New(apperror.ErrCodeValidation, "навык должен иметь название")
		}
	}
	return s.users.UpdateFreelancerSkills(ctx, actorID, skills)
}

// GetDisputeManagerProfile возвращает профиль менеджера споров.
func (s *UserService) GetDisputeManagerProfile(ctx context.Context, userID uuid.UUID) (*models.DisputeManagerProfile, error) {
	return s.users.GetDisputeManagerProfile(ctx, userID)
}

// DeleteAccount удаляет учётную запись. Контракты и споры переживают
// удаление: ссылки на пользователя обнуляются на уровне хранилища.
func (s *UserService) DeleteAccount(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID != targetID {
		return apperror.New(apperror.ErrCodeForbidden, "удалить можно только собственную учётную запись")
	}
	return s.users.Delete(ctx, targetID)
}
