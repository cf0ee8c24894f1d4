package postgres

import (
	"context"
	"database/sql"
	"errors"

	"meetnet/internal/domain"
)

type connectionRepository struct {
	DB DBTX
}

func NewConnectionRepository(db DBTX) domain.ConnectionRepository {
	return &connectionRepository{
		DB: db,
	}
}

const connectionColumns = `id, requester_id, recipient_id, status, created_at, updated_at`

func (r *connectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	query := `
		INSERT INTO connections (requester_id, recipient_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, conn.RequesterID, conn.RecipientID, conn.Status).
		Scan(&conn.ID)
}

// GetOpenByPair returns the single PENDING or ACCEPTED row between a and b in
// either direction. An open row is unique per unordered pair.
func (r *connectionRepository) GetOpenByPair(ctx context.Context, a, b string) (*domain.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE status IN ('PENDING', 'ACCEPTED')
		  AND ((requester_id = $1 AND recipient_id = $2) OR (requester_id = $2 AND recipient_id = $1))
	`
	return r.scanConnection(r.DB.QueryRowContext(ctx, query, a, b))
}

func (r *connectionRepository) GetLatestByPair(ctx context.Context, a, b string) (*domain.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE (requester_id = $1 AND recipient_id = $2) OR (requester_id = $2 AND recipient_id = $1)
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return r.scanConnection(r.DB.QueryRowContext(ctx, query, a, b))
}

func (r *connectionRepository) GetByDirection(ctx context.Context, requesterID, recipientID string) (*domain.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE requester_id = $1 AND recipient_id = $2
	`
	return r.scanConnection(r.DB.QueryRowContext(ctx, query, requesterID, recipientID))
}

func (r *connectionRepository) scanConnection(row *sql.Row) (*domain.Connection, error) {
	c := &domain.Connection{}
	err := row.Scan(&c.ID, &c.RequesterID, &c.RecipientID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// UpdateStatusIf is the compare-and-swap the connection state machine is built
// on: the row moves from one status to another only if it still holds the
// expected status when the update runs.
func (r *connectionRepository) UpdateStatusIf(ctx context.Context, id string, from, to domain.ConnectionStatus) (bool, error) {
	query := `
		UPDATE connections
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	result, err := r.DB.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
