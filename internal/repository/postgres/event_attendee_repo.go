package postgres

import (
	"context"
	"database/sql"
	"errors"

	"meetnet/internal/domain"
)

type eventAttendeeRepository struct {
	DB DBTX
}

func NewEventAttendeeRepository(db DBTX) domain.EventAttendeeRepository {
	return &eventAttendeeRepository{
		DB: db,
	}
}

const attendeeColumns = `event_id, user_id, status, profile, created_at, updated_at`

func (r *eventAttendeeRepository) Get(ctx context.Context, eventID, userID string) (*domain.EventAttendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM event_attendees WHERE event_id = $1 AND user_id = $2`
	a := &domain.EventAttendee{}
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(
		&a.EventID, &a.UserID, &a.Status, &a.Profile, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// UpsertIfNotAttending leaves an ATTENDING row untouched so an invite can
// never demote an admitted attendee. The reported bool is authoritative for
// whether the row was written: a concurrent writer holding the row lock makes
// this statement re-evaluate its condition against the committed row, so the
// caller can gate counter moves on it.
func (r *eventAttendeeRepository) UpsertIfNotAttending(ctx context.Context, eventID, userID string, status domain.AttendeeStatus) (bool, error) {
	query := `
		INSERT INTO event_attendees (event_id, user_id, status, profile, created_at, updated_at)
		VALUES ($1, $2, $3, '', NOW(), NOW())
		ON CONFLICT (event_id, user_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		WHERE event_attendees.status <> 'ATTENDING'
	`
	result, err := r.DB.ExecContext(ctx, query, eventID, userID, status)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// UpdateStatusIf flips the row's status only when it currently holds the
// expected value, reporting whether the transition happened.
func (r *eventAttendeeRepository) UpdateStatusIf(ctx context.Context, eventID, userID string, from, to domain.AttendeeStatus) (bool, error) {
	query := `
		UPDATE event_attendees SET status = $4, updated_at = NOW()
		WHERE event_id = $1 AND user_id = $2 AND status = $3
	`
	result, err := r.DB.ExecContext(ctx, query, eventID, userID, from, to)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *eventAttendeeRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	query := `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// DeleteIf removes the row only when it holds the given status, so a caller
// releasing a seat can prove an ATTENDING row actually went away.
func (r *eventAttendeeRepository) DeleteIf(ctx context.Context, eventID, userID string, status domain.AttendeeStatus) (bool, error) {
	query := `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2 AND status = $3`
	result, err := r.DB.ExecContext(ctx, query, eventID, userID, status)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *eventAttendeeRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventAttendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM event_attendees WHERE event_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, eventID)
}

func (r *eventAttendeeRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.EventAttendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM event_attendees WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *eventAttendeeRepository) list(ctx context.Context, query string, arg any) ([]*domain.EventAttendee, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := make([]*domain.EventAttendee, 0)
	for rows.Next() {
		a := &domain.EventAttendee{}
		if err := rows.Scan(&a.EventID, &a.UserID, &a.Status, &a.Profile, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}
