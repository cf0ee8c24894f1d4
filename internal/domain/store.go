package domain

import "context"

// Store bundles the repositories behind one storage backend and provides the
// transaction boundary the engines run their state transitions in.
//
// WithinTx runs fn with a Store whose repositories share a single transaction.
// If fn returns an error the transaction is rolled back and no partial state
// is visible. Serialization failures and deadlocks surface as ErrTransient.
type Store interface {
	Users() UserRepository
	Events() EventRepository
	EventAttendees() EventAttendeeRepository
	Connections() ConnectionRepository
	UserConnections() UserConnectionRepository
	Notifications() NotificationRepository

	WithinTx(ctx context.Context, fn func(Store) error) error
}
