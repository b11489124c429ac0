package order

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// ErrStoreUnavailable indicates the order store dependency is not configured.
var ErrStoreUnavailable = errors.New("order: store unavailable")

// ListQuery narrows the paginated order list.
type ListQuery struct {
	Customer string
	Status   Status
	Limit    int
	Offset   int
}

// Store persists orders.
type Store interface {
	InsertOrder(ctx context.Context, o Order) (Order, error)
	UpdateOrder(ctx context.Context, o Order) (Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context, q ListQuery) ([]Order, int64, error)
	SelectOrders(ctx context.Context, f Filter) ([]Order, error)
	DeleteOrder(ctx context.Context, id string) error
	SetOrderStatus(ctx context.Context, id string, from, to Status) (Order, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const orderColumns = `id::text, customer, jumlah_kg, kg_ceil, harga_jastip, harga_jastip_markup, harga_ongkir,
harga_ongkir_markup, total_pembayaran, total_keuntungan, currency, status, notes, unit_price_at_save,
use_auto_jastip, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o        Order
		currency string
		status   string
	)
	err := row.Scan(&o.ID, &o.Customer, &o.JumlahKg, &o.KgCeil, &o.HargaJastip, &o.HargaJastipMarkup, &o.HargaOngkir,
		&o.HargaOngkirMarkup, &o.TotalPembayaran, &o.TotalKeuntungan, &currency, &status, &o.Notes,
		&o.Computed.UnitPriceAtSave, &o.Computed.UseAutoJastip, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Currency = pricing.Currency(currency).OrDefault()
	o.Status = Status(status)
	return o, nil
}

func (s *pgStore) InsertOrder(ctx context.Context, o Order) (Order, error) {
	if s == nil || s.pool == nil {
		return Order{}, ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, `INSERT INTO orders (customer, jumlah_kg, kg_ceil, harga_jastip, harga_jastip_markup,
harga_ongkir, harga_ongkir_markup, total_pembayaran, total_keuntungan, currency, status, notes, unit_price_at_save,
use_auto_jastip)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+orderColumns,
		o.Customer, o.JumlahKg, o.KgCeil, o.HargaJastip, o.HargaJastipMarkup, o.HargaOngkir, o.HargaOngkirMarkup,
		o.TotalPembayaran, o.TotalKeuntungan, string(o.Currency), string(o.Status), o.Notes,
		o.Computed.UnitPriceAtSave, o.Computed.UseAutoJastip)
	return scanOrder(row)
}

func (s *pgStore) UpdateOrder(ctx context.Context, o Order) (Order, error) {
	if s == nil || s.pool == nil {
		return Order{}, ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, `UPDATE orders SET customer = $2, jumlah_kg = $3, kg_ceil = $4, harga_jastip = $5,
harga_jastip_markup = $6, harga_ongkir = $7, harga_ongkir_markup = $8, total_pembayaran = $9, total_keuntungan = $10,
currency = $11, status = $12, notes = $13, unit_price_at_save = $14, use_auto_jastip = $15, updated_at = now()
WHERE id = $1::uuid
RETURNING `+orderColumns,
		o.ID, o.Customer, o.JumlahKg, o.KgCeil, o.HargaJastip, o.HargaJastipMarkup, o.HargaOngkir, o.HargaOngkirMarkup,
		o.TotalPembayaran, o.TotalKeuntungan, string(o.Currency), string(o.Status), o.Notes,
		o.Computed.UnitPriceAtSave, o.Computed.UseAutoJastip)
	return scanOrder(row)
}

func (s *pgStore) GetOrder(ctx context.Context, id string) (Order, error) {
	if s == nil || s.pool == nil {
		return Order{}, ErrStoreUnavailable
	}
	return scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1::uuid`, id))
}

func (s *pgStore) ListOrders(ctx context.Context, q ListQuery) ([]Order, int64, error) {
	if s == nil || s.pool == nil {
		return nil, 0, ErrStoreUnavailable
	}
	where := ` WHERE ($1::text = '' OR customer = $1::text) AND ($2::text = '' OR status = $2::text)`
	customer := strings.TrimSpace(q.Customer)
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, customer, string(q.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders`+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		customer, string(q.Status), clampLimit(q.Limit), max(q.Offset, 0))
	if err != nil {
		return nil, 0, err
	}
	orders, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *pgStore) SelectOrders(ctx context.Context, f Filter) ([]Order, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case len(f.IDs) > 0:
		rows, err = s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ANY($1::uuid[]) ORDER BY created_at ASC`, f.IDs)
	case strings.TrimSpace(f.Customer) != "":
		rows, err = s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer = $1 ORDER BY created_at ASC`, strings.TrimSpace(f.Customer))
	default:
		rows, err = s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at ASC`)
	}
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *pgStore) DeleteOrder(ctx context.Context, id string) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetOrderStatus changes the status only if it still equals from, so
// concurrent edits cannot skip the transition check.
func (s *pgStore) SetOrderStatus(ctx context.Context, id string, from, to Status) (Order, error) {
	if s == nil || s.pool == nil {
		return Order{}, ErrStoreUnavailable
	}
	row := s.pool.QueryRow(ctx, `UPDATE orders SET status = $3, updated_at = now()
WHERE id = $1::uuid AND status = $2
RETURNING `+orderColumns, id, string(from), string(to))
	return scanOrder(row)
}

func collect(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 200 {
		return 200
	}
	return limit
}
