package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for notification operations.
var (
	// ErrUnsupportedAction is returned for an invite response on a notification
	// that is not an event invite.
	ErrUnsupportedAction = errors.New("unsupported action for this notification")
	// ErrBadNotificationData is returned when a notification payload is missing
	// the fields its type requires.
	ErrBadNotificationData = errors.New("invalid notification payload")
)

// Notification types.
const (
	NotificationEventInvite   = "EVENT_INVITE"
	NotificationEventUpdate   = "EVENT_UPDATE"
	NotificationEventJoined   = "EVENT_JOINED"
	NotificationEventReminder = "EVENT_REMINDER"
)

// Notification is an observational record created as an engine side effect.
// It is never required for state-machine invariants.
// swagger:model Notification
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}

// NotificationRepository defines storage for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	ListByUserID(ctx context.Context, userID string, onlyUnread bool, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Notifier is the side-effect dispatcher contract. Notify is fire-and-forget:
// it must be called only after the triggering transaction has committed, it
// never blocks the caller on delivery, and delivery failure is logged, not
// returned. Wait blocks until in-flight dispatches finish (shutdown only).
type Notifier interface {
	Notify(userID, kind, title, message string, data map[string]any)
	Wait()
}

// NotificationService defines the user-facing inbox operations.
type NotificationService interface {
	List(ctx context.Context, userID string, onlyUnread bool) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	// RespondToInvite accepts or declines an EVENT_INVITE notification and
	// deletes it once handled. Accepting goes through the membership engine and
	// is subject to the event capacity.
	RespondToInvite(ctx context.Context, userID, notificationID string, accept bool) error
}
