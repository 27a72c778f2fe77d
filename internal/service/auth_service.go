package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
)

// UserRepository описывает зависимости сервисов от хранилища пользователей.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	GetFreelancerProfile(ctx context.Context, userID uuid.UUID) (*models.FreelancerProfile, error)
	UpdateFreelancerSkills(ctx context.Context, userID uuid.UUID, skills []models.Skill) error
	GetDisputeManagerProfile(ctx context.Context, userID uuid.UUID) (*models.DisputeManagerProfile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthService инкапсулирует регистрацию и аутентификацию.
type AuthService struct {
	users        UserRepository
	tokenManager *TokenManager
}

func NewAuthService(users UserRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{users: users, tokenManager: tokenManager}
}

// RegisterInput данные пользователя при регистрации.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

// LoginInput данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
}

// Register создаёт пользователя с профильной записью его роли.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный email")
	}
	if len(in.Password) < 8 {
		return nil, apperror.New(apperror.ErrCodeValidation, "пароль должен быть не короче 8 символов")
	}
	if _, ok := models.ValidRoles[in.Role]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "неизвестная роль %q", in.Role)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "email уже зарегистрирован")
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(passHash),
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	tokenPair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// Login проверяет учётные данные и возвращает токены.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "учётная запись деактивирована")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrUnauthorized
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	tokenPair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// Refresh выпускает новую пару токенов по refresh токену.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokenManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "учётная запись деактивирована")
	}

	tokenPair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}
