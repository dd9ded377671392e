package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/pkg/database"
)

// UserRepository implements contracts.UserRepository
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*contracts.User, error) {
	var u contracts.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Rating, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user; duplicate usernames map to ErrAlreadyExists
func (r *UserRepository) Create(ctx context.Context, user *contracts.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, rating, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.PasswordHash, user.Rating, user.CreatedAt)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("username %q: %w", user.Username, contracts.ErrAlreadyExists)
	}
	return err
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*contracts.User, error) {
	query := `
		SELECT id::text, username, password_hash, rating, created_at
		FROM users
		WHERE id = $1
	`
	uid, err := parseID("user", id)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(r.pool.QueryRow(ctx, query, uid))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

// GetByUsername retrieves a user by username (case-insensitive)
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*contracts.User, error) {
	query := `
		SELECT id::text, username, password_hash, rating, created_at
		FROM users
		WHERE lower(username) = lower($1)
	`
	u, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, notFound(err, "username", username)
	}
	return u, nil
}

// Top returns users ordered by rating with a deterministic tie-break
func (r *UserRepository) Top(ctx context.Context, limit int) ([]*contracts.User, error) {
	query := `
		SELECT id::text, username, password_hash, rating, created_at
		FROM users
		ORDER BY rating DESC, created_at ASC, id ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*contracts.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountAbove counts users with a strictly higher rating
func (r *UserRepository) CountAbove(ctx context.Context, rating float64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE rating > $1`, rating).Scan(&n)
	return n, err
}
