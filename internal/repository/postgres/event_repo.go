package postgres

import (
	"context"
	"database/sql"
	"errors"

	"meetnet/internal/domain"
)

type eventRepository struct {
	DB DBTX
}

func NewEventRepository(db DBTX) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, creator_id, title, description, category, location, invite_only, max_attendees, attendees, starts_at, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (creator_id, title, description, category, location, invite_only, max_attendees, starts_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.CreatorID, e.Title, e.Description, e.Category, e.Location,
		e.InviteOnly, e.MaxAttendees, e.StartsAt, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.CreatorID, &e.Title, &e.Description, &e.Category, &e.Location,
		&e.InviteOnly, &e.MaxAttendees, &e.Attendees, &e.StartsAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByCreatorID(ctx context.Context, creatorID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE creator_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e := &domain.Event{}
		if err := rows.Scan(
			&e.ID, &e.CreatorID, &e.Title, &e.Description, &e.Category, &e.Location,
			&e.InviteOnly, &e.MaxAttendees, &e.Attendees, &e.StartsAt, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementAttendees bumps the counter only while there is capacity left. The
// conditional update takes the row lock, so two racing joins on the last seat
// serialize here and exactly one sees a true return.
func (r *eventRepository) IncrementAttendees(ctx context.Context, eventID string) (bool, error) {
	query := `
		UPDATE events
		SET attendees = attendees + 1, updated_at = NOW()
		WHERE id = $1 AND attendees < max_attendees
	`
	result, err := r.DB.ExecContext(ctx, query, eventID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *eventRepository) DecrementAttendees(ctx context.Context, eventID string) error {
	query := `
		UPDATE events
		SET attendees = GREATEST(attendees - 1, 0), updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, eventID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
