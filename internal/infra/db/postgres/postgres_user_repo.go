package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-bot-template/internal/domain"
	"telegram-bot-template/internal/domain/model"
	"telegram-bot-template/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

// Save upserts the user. The conflict clause only ever touches username:
// id and registered_at are immutable after the first insert.
func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, username, registered_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, u.ID, u.Username, u.RegisteredAt); err != nil {
		return fmt.Errorf("save user %d: %w", u.ID, err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	const q = `SELECT id, username, registered_at FROM users WHERE id = $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := ex.QueryRow(ctx, q, tgID).Scan(&u.ID, &u.Username, &u.RegisteredAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns users ordered by the time they were first seen. offset/limit
// of 0 means the entire set; broadcast snapshots rely on this ordering.
func (r *PostgresUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	q := `SELECT id, username, registered_at FROM users ORDER BY registered_at, id`
	args := []interface{}{}
	if limit > 0 {
		q += ` OFFSET $1 LIMIT $2`
		args = append(args, offset, limit)
	}
	q += `;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
