package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-rateio/internal/user"
)

// UserRepo persists user accounts in Postgres.
type UserRepo struct {
	Pool *pgxpool.Pool
}

var _ user.Store = (*UserRepo)(nil)

const userColumns = `id, name, username, email, role, password_hash, created_at, updated_at`

const uniqueViolation = "23505"

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func mapUserErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return user.ErrDuplicate
	}
	return err
}

// CreateUser inserts a new account. A username or email collision yields
// user.ErrDuplicate.
func (r *UserRepo) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO users (id, name, username, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		u.ID, u.Name, u.Username, u.Email, u.Role, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	created, err := scanUser(row)
	if err != nil {
		return user.User{}, mapUserErr(err)
	}
	return created, nil
}

// GetUser fetches one account by id.
func (r *UserRepo) GetUser(ctx context.Context, id uuid.UUID) (user.User, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByUsername fetches one account by username.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// ListUsers returns every account, oldest first.
func (r *UserRepo) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser persists profile changes.
func (r *UserRepo) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	row := r.Pool.QueryRow(ctx, `
		UPDATE users SET name = $2, username = $3, email = $4, role = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, u.Name, u.Username, u.Email, u.Role, u.UpdatedAt,
	)
	updated, err := scanUser(row)
	if err != nil {
		return user.User{}, mapUserErr(err)
	}
	return updated, nil
}

// DeleteUser removes an account. Bills owned by the user keep existing with a
// cleared owner.
func (r *UserRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}
