package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apporbit/apporbit-server/internal/domain"
)

type UserRepository interface {
	// Upsert inserts the user if the email is unseen. The bool reports
	// whether a row was created; re-registration returns the existing user.
	Upsert(ctx context.Context, req *domain.UserCreate) (*domain.User, bool, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
	SetRole(ctx context.Context, id int64, role domain.Role) (bool, error)
	SetSubscribed(ctx context.Context, email string) (bool, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, email, name, photo_url, role, is_subscribed, created_at, updated_at`

func (r *userRepository) Upsert(ctx context.Context, req *domain.UserCreate) (*domain.User, bool, error) {
	const q = `INSERT INTO users (email, name, photo_url)
		VALUES (lower($1), $2, $3)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, req.Email, req.Name, req.PhotoURL).Scan(
		&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.IsSubscribed, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == nil {
		return &u, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, err
	}

	// Conflict: the email is already registered.
	existing, err := r.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE email=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.IsSubscribed, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &u, err
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.IsSubscribed, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) SetRole(ctx context.Context, id int64, role domain.Role) (bool, error) {
	const q = `UPDATE users SET role=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, role)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *userRepository) SetSubscribed(ctx context.Context, email string) (bool, error) {
	const q = `UPDATE users SET is_subscribed=true, updated_at=now() WHERE email=lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, email)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
