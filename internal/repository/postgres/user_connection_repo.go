package postgres

import (
	"context"

	"meetnet/internal/domain"
)

type userConnectionRepository struct {
	DB DBTX
}

func NewUserConnectionRepository(db DBTX) domain.UserConnectionRepository {
	return &userConnectionRepository{
		DB: db,
	}
}

// CreateBoth upserts both directions of the mirror in one statement, so the
// symmetric pair can never be half-created.
func (r *userConnectionRepository) CreateBoth(ctx context.Context, a, b string) error {
	query := `
		INSERT INTO user_connections (user_id, connected_user_id, created_at)
		VALUES ($1, $2, NOW()), ($2, $1, NOW())
		ON CONFLICT (user_id, connected_user_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, a, b)
	return err
}

// DeleteBoth removes both directions and reports whether any row existed.
func (r *userConnectionRepository) DeleteBoth(ctx context.Context, a, b string) (bool, error) {
	query := `
		DELETE FROM user_connections
		WHERE (user_id = $1 AND connected_user_id = $2)
		   OR (user_id = $2 AND connected_user_id = $1)
	`
	result, err := r.DB.ExecContext(ctx, query, a, b)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *userConnectionRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.UserConnection, error) {
	query := `
		SELECT user_id, connected_user_id, created_at
		FROM user_connections
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conns := make([]*domain.UserConnection, 0)
	for rows.Next() {
		c := &domain.UserConnection{}
		if err := rows.Scan(&c.UserID, &c.ConnectedUserID, &c.CreatedAt); err != nil {
			return nil, err
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}
