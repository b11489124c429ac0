package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-jastip/internal/order"
	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// ErrStoreUnavailable indicates the invoice store dependency is not configured.
var ErrStoreUnavailable = errors.New("invoice: store unavailable")

// Store persists invoices.
type Store interface {
	LastSequence(ctx context.Context, prefix string) (int, error)
	Insert(ctx context.Context, inv Invoice) (Invoice, error)
	Get(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, limit, offset int) ([]Invoice, int64, error)
	Complete(ctx context.Context, id string, summary order.Summary) error
	Fail(ctx context.Context, id, reason string) error
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const invoiceColumns = `id::text, number, filter, status, lines, subtotal, currency, reason, issued_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv           Invoice
		filter, lines []byte
		status        string
		currency      string
	)
	err := row.Scan(&inv.ID, &inv.Number, &filter, &status, &lines, &inv.Subtotal, &currency, &inv.Reason,
		&inv.IssuedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	if len(filter) > 0 {
		if err := json.Unmarshal(filter, &inv.Filter); err != nil {
			return Invoice{}, fmt.Errorf("decode invoice filter: %w", err)
		}
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &inv.Lines); err != nil {
			return Invoice{}, fmt.Errorf("decode invoice lines: %w", err)
		}
	}
	inv.Status = Status(status)
	inv.Currency = pricing.Currency(currency)
	return inv, nil
}

func (s *pgStore) LastSequence(ctx context.Context, prefix string) (int, error) {
	if s == nil || s.pool == nil {
		return 0, ErrStoreUnavailable
	}
	var seq int
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(max(substring(number FROM length($1::text) + 1)::int), 0)
FROM invoices WHERE number LIKE $1::text || '%'`, prefix).Scan(&seq)
	return seq, err
}

func (s *pgStore) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	if s == nil || s.pool == nil {
		return Invoice{}, ErrStoreUnavailable
	}
	filter, err := json.Marshal(inv.Filter)
	if err != nil {
		return Invoice{}, err
	}
	return scanInvoice(s.pool.QueryRow(ctx, `INSERT INTO invoices (number, filter, status, currency, issued_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+invoiceColumns, inv.Number, filter, string(inv.Status), string(inv.Currency), inv.IssuedBy))
}

func (s *pgStore) Get(ctx context.Context, id string) (Invoice, error) {
	if s == nil || s.pool == nil {
		return Invoice{}, ErrStoreUnavailable
	}
	return scanInvoice(s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1::uuid`, id))
}

func (s *pgStore) List(ctx context.Context, limit, offset int) ([]Invoice, int64, error) {
	if s == nil || s.pool == nil {
		return nil, 0, ErrStoreUnavailable
	}
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM invoices`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// Complete freezes the aggregation into a queued invoice. Invoices that are
// no longer queued are left alone.
func (s *pgStore) Complete(ctx context.Context, id string, summary order.Summary) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	lines, err := json.Marshal(summary.Lines)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `UPDATE invoices SET status = 'ready', lines = $2, subtotal = $3, currency = $4,
reason = '', updated_at = now()
WHERE id = $1::uuid AND status = 'queued'`, id, lines, summary.Subtotal, string(summary.Currency))
	return err
}

func (s *pgStore) Fail(ctx context.Context, id, reason string) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	_, err := s.pool.Exec(ctx, `UPDATE invoices SET status = 'failed', reason = $2, updated_at = now()
WHERE id = $1::uuid AND status = 'queued'`, id, reason)
	return err
}
