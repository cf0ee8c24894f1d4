package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetnet/internal/domain"
)

const inboxLimit = 50

type notificationService struct {
	store          domain.Store
	membership     domain.MembershipService
	contextTimeout time.Duration
}

// NewNotificationService creates the inbox service. Invite responses are
// delegated to the membership engine so the capacity invariant applies to
// invite acceptance exactly as it does to a direct join.
func NewNotificationService(store domain.Store, membership domain.MembershipService, timeout time.Duration) domain.NotificationService {
	return &notificationService{
		store:          store,
		membership:     membership,
		contextTimeout: timeout,
	}
}

func (s *notificationService) List(ctx context.Context, userID string, onlyUnread bool) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	notifications, err := s.store.Notifications().ListByUserID(ctx, userID, onlyUnread, inboxLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	notification, err := s.owned(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	return s.store.Notifications().MarkRead(ctx, notification.ID)
}

func (s *notificationService) RespondToInvite(ctx context.Context, userID, notificationID string, accept bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	notification, err := s.owned(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if notification.Type != domain.NotificationEventInvite {
		return domain.ErrUnsupportedAction
	}
	eventID, _ := notification.Data["event_id"].(string)
	if eventID == "" {
		return domain.ErrBadNotificationData
	}

	if accept {
		if err := s.membership.AcceptInvite(ctx, eventID, userID); err != nil {
			return err
		}
	} else {
		if err := s.membership.Leave(ctx, eventID, userID); err != nil {
			return err
		}
	}
	// The handled invite disappears from the inbox.
	if err := s.store.Notifications().Delete(ctx, notification.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

func (s *notificationService) owned(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	notification, err := s.store.Notifications().GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if notification.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return notification, nil
}
