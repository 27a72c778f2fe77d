package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ethiogig/ethiogig-backend/internal/logger"
	"github.com/ethiogig/ethiogig-backend/internal/models"
)

// Notifier рассылает уведомления сторонам рабочего процесса.
// Контракт fire-and-forget: сбой доставки никогда не откатывает переход,
// который её вызвал.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, description string)
	Email(ctx context.Context, address, subject, htmlBody string)
}

// NotificationSaver сохраняет уведомление в хранилище.
type NotificationSaver interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Pusher доставляет событие подключённому пользователю в реальном времени.
type Pusher interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// Mailer отправляет письмо.
type Mailer interface {
	Send(address, subject, htmlBody string) error
}

// WorkflowNotifier сохраняет уведомление, толкает его в websocket-хаб
// и умеет отправлять письма. Все ошибки только логируются.
type WorkflowNotifier struct {
	saver  NotificationSaver
	pusher Pusher
	mailer Mailer
}

func NewWorkflowNotifier(saver NotificationSaver, pusher Pusher, mailer Mailer) *WorkflowNotifier {
	return &WorkflowNotifier{saver: saver, pusher: pusher, mailer: mailer}
}

type notificationPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Notify сохраняет уведомление и доставляет его через websocket.
func (n *WorkflowNotifier) Notify(ctx context.Context, userID uuid.UUID, title, description string) {
	payload := notificationPayload{Title: title, Description: description}

	raw, err := json.Marshal(payload)
	if err != nil {
		n.logError("notifier: marshal payload", err)
		return
	}

	if n.saver != nil {
		notification := &models.Notification{UserID: userID, Payload: raw}
		if err := n.saver.Create(ctx, notification); err != nil {
			n.logError("notifier: save notification", err)
		}
	}

	if n.pusher != nil {
		if err := n.pusher.BroadcastToUser(userID, "notification", payload); err != nil {
			n.logError("notifier: push notification", err)
		}
	}
}

// Email отправляет письмо, не прерывая вызвавшую операцию при сбое.
func (n *WorkflowNotifier) Email(ctx context.Context, address, subject, htmlBody string) {
	if n.mailer == nil || address == "" {
		return
	}
	if err := n.mailer.Send(address, subject, htmlBody); err != nil {
		n.logError("notifier: send email", err)
	}
}

func (n *WorkflowNotifier) logError(msg string, err error) {
	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{"error": err.Error()}).Warn(msg)
	}
}
