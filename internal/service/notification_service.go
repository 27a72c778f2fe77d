package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ethiogig/ethiogig-backend/internal/models"
	"github.com/ethiogig/ethiogig-backend/internal/pkg/apperror"
)

// NotificationRepository описывает хранилище уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService отдаёт пользователю его ленту уведомлений.
type NotificationService struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// Create сохраняет уведомление. Используется рассыльщиком рабочего процесса.
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	return s.repo.Create(ctx, n)
}

// List возвращает уведомления пользователя, свежие первыми.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// MarkAsRead отмечает уведомление прочитанным. Чужие уведомления недоступны.
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return apperror.ErrForbidden
	}
	return s.repo.MarkAsRead(ctx, notificationID)
}

// MarkAllAsRead отмечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// CountUnread возвращает число непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
