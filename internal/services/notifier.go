package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"meetnet/internal/domain"
)

type notifier struct {
	store        domain.Store
	emailService domain.EmailService
	logger       *slog.Logger
	timeout      time.Duration
	wg           sync.WaitGroup
}

// NewNotifier creates the side-effect dispatcher. Each Notify call records the
// notification and best-effort emails the user in its own goroutine with a
// bounded background context, detached from the caller's transaction: a slow
// or failing channel can delay nothing and roll back nothing. Failures are
// logged and swallowed.
func NewNotifier(store domain.Store, emailService domain.EmailService, logger *slog.Logger, timeout time.Duration) domain.Notifier {
	return &notifier{
		store:        store,
		emailService: emailService,
		logger:       logger,
		timeout:      timeout,
	}
}

func (n *notifier) Notify(userID, kind, title, message string, data map[string]any) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		notification := &domain.Notification{
			UserID:  userID,
			Type:    kind,
			Title:   title,
			Message: message,
			Data:    data,
		}
		if err := n.store.Notifications().Create(ctx, notification); err != nil {
			n.logger.Error("create notification", "user_id", userID, "type", kind, "err", err)
			return
		}

		user, err := n.store.Users().GetByID(ctx, userID)
		if err != nil {
			n.logger.Warn("lookup notification recipient", "user_id", userID, "err", err)
			return
		}
		if user.Email == "" {
			return
		}
		err = n.emailService.SendNotification(ctx, &domain.NotificationEmailData{
			Email:          user.Email,
			Title:          title,
			Message:        message,
			NotificationID: notification.ID,
		})
		if err != nil {
			n.logger.Warn("send notification email", "user_id", userID, "type", kind, "err", err)
		}
	}()
}

// Wait blocks until all in-flight dispatches have finished. Shutdown only.
func (n *notifier) Wait() {
	n.wg.Wait()
}
