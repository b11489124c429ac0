package customer

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStoreUnavailable indicates the customer store dependency is not configured.
var ErrStoreUnavailable = errors.New("customer: store unavailable")

// ErrDuplicateName is returned when another customer already uses the name.
var ErrDuplicateName = errors.New("customer: duplicate name")

// Customer is a buyer the business shops on behalf of.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists customers.
type Store interface {
	Insert(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	Get(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context, search string, limit, offset int) ([]Customer, int64, error)
	Delete(ctx context.Context, id string) error
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const customerColumns = `id::text, name, phone, address, notes, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Customer{}, mapErr(err)
	}
	return c, nil
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateName
	}
	return err
}

func (s *pgStore) Insert(ctx context.Context, c Customer) (Customer, error) {
	if s == nil || s.pool == nil {
		return Customer{}, ErrStoreUnavailable
	}
	return scanCustomer(s.pool.QueryRow(ctx, `INSERT INTO customers (name, phone, address, notes)
VALUES ($1, $2, $3, $4)
RETURNING `+customerColumns, c.Name, c.Phone, c.Address, c.Notes))
}

func (s *pgStore) Update(ctx context.Context, c Customer) (Customer, error) {
	if s == nil || s.pool == nil {
		return Customer{}, ErrStoreUnavailable
	}
	return scanCustomer(s.pool.QueryRow(ctx, `UPDATE customers SET name = $2, phone = $3, address = $4, notes = $5,
updated_at = now()
WHERE id = $1::uuid
RETURNING `+customerColumns, c.ID, c.Name, c.Phone, c.Address, c.Notes))
}

func (s *pgStore) Get(ctx context.Context, id string) (Customer, error) {
	if s == nil || s.pool == nil {
		return Customer{}, ErrStoreUnavailable
	}
	return scanCustomer(s.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1::uuid`, id))
}

func (s *pgStore) List(ctx context.Context, search string, limit, offset int) ([]Customer, int64, error) {
	if s == nil || s.pool == nil {
		return nil, 0, ErrStoreUnavailable
	}
	const where = ` WHERE ($1::text = '' OR name ILIKE '%' || $1::text || '%')`
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM customers`+where, search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers`+where+` ORDER BY name ASC LIMIT $2 OFFSET $3`,
		search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *pgStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
