package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// ErrStoreUnavailable indicates the ledger store dependency is not configured.
var ErrStoreUnavailable = errors.New("ledger: store unavailable")

// Store persists ledger entries.
type Store interface {
	Insert(ctx context.Context, e Entry) (Entry, error)
	List(ctx context.Context, q Query) ([]Entry, int64, error)
	Delete(ctx context.Context, id string) error
	Totals(ctx context.Context, from, to time.Time) ([]Totals, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const entryColumns = `id::text, direction, amount, currency, description, order_id::text, occurred_at, created_at`

// Zero times are passed as NULL so the range bounds become optional.
const rangeFilter = `($1::timestamptz IS NULL OR occurred_at >= $1) AND ($2::timestamptz IS NULL OR occurred_at < $2)`

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e         Entry
		direction string
		currency  string
	)
	if err := row.Scan(&e.ID, &direction, &e.Amount, &currency, &e.Description, &e.OrderID, &e.OccurredAt, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.Direction = Direction(direction)
	e.Currency = pricing.Currency(currency).OrDefault()
	return e, nil
}

func (s *pgStore) Insert(ctx context.Context, e Entry) (Entry, error) {
	if s == nil || s.pool == nil {
		return Entry{}, ErrStoreUnavailable
	}
	return scanEntry(s.pool.QueryRow(ctx, `INSERT INTO ledger_entries (direction, amount, currency, description, order_id, occurred_at)
VALUES ($1, $2, $3, $4, $5::uuid, $6)
RETURNING `+entryColumns,
		string(e.Direction), e.Amount, string(e.Currency), e.Description, e.OrderID, e.OccurredAt))
}

func (s *pgStore) List(ctx context.Context, q Query) ([]Entry, int64, error) {
	if s == nil || s.pool == nil {
		return nil, 0, ErrStoreUnavailable
	}
	where := ` WHERE ` + rangeFilter + ` AND ($3::text = '' OR direction = $3::text)`
	args := []any{nullableTime(q.From), nullableTime(q.To), string(q.Direction)}
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM ledger_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+entryColumns+` FROM ledger_entries`+where+
		` ORDER BY occurred_at DESC, created_at DESC LIMIT $4 OFFSET $5`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (s *pgStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *pgStore) Totals(ctx context.Context, from, to time.Time) ([]Totals, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := s.pool.Query(ctx, `SELECT currency, direction, COALESCE(sum(amount), 0)
FROM ledger_entries WHERE `+rangeFilter+`
GROUP BY currency, direction`, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Totals
	for rows.Next() {
		var (
			t                   Totals
			currency, direction string
		)
		if err := rows.Scan(&currency, &direction, &t.Sum); err != nil {
			return nil, err
		}
		t.Currency = pricing.Currency(currency)
		t.Direction = Direction(direction)
		out = append(out, t)
	}
	return out, rows.Err()
}
