package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"meetnet/internal/domain"
)

// Store implements domain.Store over a postgres database. The zero transaction
// form binds every repository to the *sql.DB; WithinTx rebinds them to one
// *sql.Tx for the duration of the closure.
type Store struct {
	db   *sql.DB
	dbtx DBTX

	users           domain.UserRepository
	events          domain.EventRepository
	eventAttendees  domain.EventAttendeeRepository
	connections     domain.ConnectionRepository
	userConnections domain.UserConnectionRepository
	notifications   domain.NotificationRepository
}

// NewStore returns a Store whose repositories run directly on db.
func NewStore(db *sql.DB) *Store {
	return newStore(db, db)
}

func newStore(db *sql.DB, dbtx DBTX) *Store {
	return &Store{
		db:              db,
		dbtx:            dbtx,
		users:           NewUserRepository(dbtx),
		events:          NewEventRepository(dbtx),
		eventAttendees:  NewEventAttendeeRepository(dbtx),
		connections:     NewConnectionRepository(dbtx),
		userConnections: NewUserConnectionRepository(dbtx),
		notifications:   NewNotificationRepository(dbtx),
	}
}

func (s *Store) Users() domain.UserRepository                     { return s.users }
func (s *Store) Events() domain.EventRepository                   { return s.events }
func (s *Store) EventAttendees() domain.EventAttendeeRepository   { return s.eventAttendees }
func (s *Store) Connections() domain.ConnectionRepository         { return s.connections }
func (s *Store) UserConnections() domain.UserConnectionRepository { return s.userConnections }
func (s *Store) Notifications() domain.NotificationRepository     { return s.notifications }

// WithinTx runs fn inside one transaction. Nested calls reuse the transaction
// already bound to this Store. Serialization failures, deadlocks, and lock
// timeouts are reported as domain.ErrTransient so callers can retry; any other
// error from fn is surfaced verbatim after rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	if _, ok := s.dbtx.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", translateTxErr(err))
	}
	if err := fn(newStore(s.db, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return translateTxErr(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", translateTxErr(err))
	}
	return nil
}

// Postgres error codes that mean "retry the whole transaction".
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

func translateTxErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTransient, err)
	}
	return err
}
