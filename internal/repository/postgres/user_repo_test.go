package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"meetnet/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO users \(email, username, name, password_hash, password_salt, created_at, updated_at\)`).
					WithArgs("a@example.com", "alex", "Alex", "hash", "salt", created, created).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("user-1"))
			},
			wantID: "user-1",
		},
		{
			name: "duplicate email",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO users`).
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrDuplicateEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewUserRepository(db)
			u := &domain.User{
				Email:        "a@example.com",
				Username:     "alex",
				Name:         "Alex",
				PasswordHash: "hash",
				PasswordSalt: "salt",
				CreatedAt:    created,
				UpdatedAt:    created,
			}
			err = repo.Create(ctx, u)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, u.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email, username, name, connections, password_hash, password_salt, created_at, updated_at\s+FROM users\s+WHERE email = \$1`).
			WithArgs("a@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "name", "connections", "password_hash", "password_salt", "created_at", "updated_at"}).
				AddRow("user-1", "a@example.com", "alex", "Alex", 2, "hash", "salt", created, created))

		repo := NewUserRepository(db)
		got, err := repo.GetByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		require.Equal(t, "user-1", got.ID)
		require.Equal(t, 2, got.Connections)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, email`).
			WithArgs("nobody@example.com").
			WillReturnError(sql.ErrNoRows)

		repo := NewUserRepository(db)
		_, err = repo.GetByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserRepository_ListByIDs(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty input short-circuits", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewUserRepository(db)
		got, err := repo.ListByIDs(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`WHERE id = ANY\(\$1\)`).
			WithArgs(pq.Array([]string{"user-1", "user-2"})).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "name", "connections", "password_hash", "password_salt", "created_at", "updated_at"}).
				AddRow("user-1", "a@example.com", "alex", "Alex", 0, "", "", created, created).
				AddRow("user-2", "b@example.com", "blake", "Blake", 1, "", "", created, created))

		repo := NewUserRepository(db)
		got, err := repo.ListByIDs(ctx, []string{"user-1", "user-2"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ConnectionCounters(t *testing.T) {
	ctx := context.Background()

	t.Run("increment", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE users SET connections = connections \+ 1, updated_at = NOW\(\) WHERE id = \$1`).
			WithArgs("user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewUserRepository(db)
		require.NoError(t, repo.IncrementConnections(ctx, "user-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decrement floors at zero in SQL", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE users SET connections = GREATEST\(connections - 1, 0\), updated_at = NOW\(\) WHERE id = \$1`).
			WithArgs("user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewUserRepository(db)
		require.NoError(t, repo.DecrementConnections(ctx, "user-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE users SET connections`).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewUserRepository(db)
		require.ErrorIs(t, repo.IncrementConnections(ctx, "missing"), domain.ErrNotFound)
	})
}

func TestUserRepository_LockPair(t *testing.T) {
	ctx := context.Background()

	t.Run("locks both rows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id FROM users WHERE id IN \(\$1, \$2\) ORDER BY id FOR UPDATE`).
			WithArgs("user-2", "user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("user-1").AddRow("user-2"))

		repo := NewUserRepository(db)
		require.NoError(t, repo.LockPair(ctx, "user-2", "user-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id FROM users WHERE id IN \(\$1, \$2\) ORDER BY id FOR UPDATE`).
			WithArgs("user-1", "ghost").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("user-1"))

		repo := NewUserRepository(db)
		require.ErrorIs(t, repo.LockPair(ctx, "user-1", "ghost"), domain.ErrNotFound)
	})
}
