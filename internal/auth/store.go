package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStoreUnavailable indicates the admin store dependency is not configured.
var ErrStoreUnavailable = errors.New("auth: store unavailable")

// Admin is a dashboard operator account.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store reads and writes admin accounts.
type Store interface {
	GetAdminByEmail(ctx context.Context, email string) (Admin, error)
	GetAdminByID(ctx context.Context, id string) (Admin, error)
	UpsertAdmin(ctx context.Context, a Admin) (Admin, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const adminColumns = `id::text, email, name, password_hash, created_at`

func (s *pgStore) GetAdminByEmail(ctx context.Context, email string) (Admin, error) {
	if s == nil || s.pool == nil {
		return Admin{}, ErrStoreUnavailable
	}
	var a Admin
	err := s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE email = $1`, email).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	return a, err
}

func (s *pgStore) GetAdminByID(ctx context.Context, id string) (Admin, error) {
	if s == nil || s.pool == nil {
		return Admin{}, ErrStoreUnavailable
	}
	var a Admin
	err := s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE id = $1::uuid`, id).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	return a, err
}

// UpsertAdmin creates the admin or resets its name and password.
func (s *pgStore) UpsertAdmin(ctx context.Context, a Admin) (Admin, error) {
	if s == nil || s.pool == nil {
		return Admin{}, ErrStoreUnavailable
	}
	var out Admin
	err := s.pool.QueryRow(ctx, `INSERT INTO admin_users (email, name, password_hash)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash
RETURNING `+adminColumns, a.Email, a.Name, a.PasswordHash).
		Scan(&out.ID, &out.Email, &out.Name, &out.PasswordHash, &out.CreatedAt)
	return out, err
}
