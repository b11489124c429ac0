package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// ErrStoreUnavailable indicates the tracking store dependency is not configured.
var ErrStoreUnavailable = errors.New("tracking: store unavailable")

// Item is something a customer asked to be bought, tracked until it ships.
type Item struct {
	ID             string           `json:"id"`
	Customer       string           `json:"customer"`
	ItemName       string           `json:"itemName"`
	Store          string           `json:"store,omitempty"`
	Quantity       int              `json:"quantity"`
	Price          float64          `json:"price"`
	Currency       pricing.Currency `json:"currency"`
	Purchased      bool             `json:"purchased"`
	PurchasedAt    *time.Time       `json:"purchasedAt,omitempty"`
	TrackingNumber string           `json:"trackingNumber,omitempty"`
	OrderID        *string          `json:"orderId,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Query narrows the item list.
type Query struct {
	Customer  string
	Purchased *bool
	Limit     int
	Offset    int
}

// Store persists tracked items.
type Store interface {
	Insert(ctx context.Context, it Item) (Item, error)
	Update(ctx context.Context, it Item) (Item, error)
	Get(ctx context.Context, id string) (Item, error)
	List(ctx context.Context, q Query) ([]Item, int64, error)
	Delete(ctx context.Context, id string) error
	MarkPurchased(ctx context.Context, id, trackingNumber string) (Item, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

const itemColumns = `id::text, customer, item_name, store, quantity, price, currency, purchased, purchased_at,
tracking_number, order_id::text, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var (
		it       Item
		currency string
	)
	err := row.Scan(&it.ID, &it.Customer, &it.ItemName, &it.Store, &it.Quantity, &it.Price, &currency, &it.Purchased,
		&it.PurchasedAt, &it.TrackingNumber, &it.OrderID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return Item{}, err
	}
	it.Currency = pricing.Currency(currency).OrDefault()
	return it, nil
}

func (s *pgStore) Insert(ctx context.Context, it Item) (Item, error) {
	if s == nil || s.pool == nil {
		return Item{}, ErrStoreUnavailable
	}
	return scanItem(s.pool.QueryRow(ctx, `INSERT INTO tracking_items (customer, item_name, store, quantity, price, currency,
purchased, purchased_at, tracking_number, order_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, CASE WHEN $7 THEN now() END, $8, $9::uuid)
RETURNING `+itemColumns,
		it.Customer, it.ItemName, it.Store, it.Quantity, it.Price, string(it.Currency), it.Purchased, it.TrackingNumber, it.OrderID))
}

func (s *pgStore) Update(ctx context.Context, it Item) (Item, error) {
	if s == nil || s.pool == nil {
		return Item{}, ErrStoreUnavailable
	}
	return scanItem(s.pool.QueryRow(ctx, `UPDATE tracking_items SET customer = $2, item_name = $3, store = $4, quantity = $5,
price = $6, currency = $7, purchased = $8,
purchased_at = CASE WHEN $8 THEN COALESCE(purchased_at, now()) END,
tracking_number = $9, order_id = $10::uuid, updated_at = now()
WHERE id = $1::uuid
RETURNING `+itemColumns,
		it.ID, it.Customer, it.ItemName, it.Store, it.Quantity, it.Price, string(it.Currency), it.Purchased, it.TrackingNumber, it.OrderID))
}

func (s *pgStore) Get(ctx context.Context, id string) (Item, error) {
	if s == nil || s.pool == nil {
		return Item{}, ErrStoreUnavailable
	}
	return scanItem(s.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM tracking_items WHERE id = $1::uuid`, id))
}

func (s *pgStore) List(ctx context.Context, q Query) ([]Item, int64, error) {
	if s == nil || s.pool == nil {
		return nil, 0, ErrStoreUnavailable
	}
	const where = ` WHERE ($1::text = '' OR customer = $1::text) AND ($2::boolean IS NULL OR purchased = $2::boolean)`
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM tracking_items`+where, q.Customer, q.Purchased).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM tracking_items`+where+
		` ORDER BY purchased ASC, created_at DESC LIMIT $3 OFFSET $4`, q.Customer, q.Purchased, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func (s *pgStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM tracking_items WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *pgStore) MarkPurchased(ctx context.Context, id, trackingNumber string) (Item, error) {
	if s == nil || s.pool == nil {
		return Item{}, ErrStoreUnavailable
	}
	return scanItem(s.pool.QueryRow(ctx, `UPDATE tracking_items SET purchased = true,
purchased_at = COALESCE(purchased_at, now()),
tracking_number = CASE WHEN $2 = '' THEN tracking_number ELSE $2 END, updated_at = now()
WHERE id = $1::uuid
RETURNING `+itemColumns, id, trackingNumber))
}
