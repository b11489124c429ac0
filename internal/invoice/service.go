package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/obs"
	"github.com/noah-isme/backend-jastip/internal/order"
)

// TaskSnapshot is the asynq task type that freezes an issued invoice.
const TaskSnapshot = "invoice:snapshot"

const numberLock = "invoice-number"

// Summarizer aggregates orders for a filter.
type Summarizer interface {
	Summarize(ctx context.Context, filter order.Filter) (order.Summary, error)
}

// Locker runs fn while holding a named distributed lock.
type Locker interface {
	WithLock(ctx context.Context, name string, fn func(context.Context) error) error
}

// Enqueuer schedules background tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SnapshotPayload identifies the invoice a snapshot task works on.
type SnapshotPayload struct {
	InvoiceID string `json:"invoiceId"`
}

// NewSnapshotTask builds the task that freezes invoiceID.
func NewSnapshotTask(invoiceID string) (*asynq.Task, error) {
	payload, err := json.Marshal(SnapshotPayload{InvoiceID: invoiceID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshot, payload, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

// Service issues invoices over order aggregations.
type Service struct {
	Store  Store
	Orders Summarizer
	Locker Locker
	Tasks  Enqueuer
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Preview aggregates the selection without issuing anything. A selection
// spanning several currencies cannot be invoiced and is rejected.
func (s *Service) Preview(ctx context.Context, filter order.Filter) (order.Summary, error) {
	if s.Orders == nil {
		return order.Summary{}, errors.New("invoice: order summarizer not configured")
	}
	summary, err := s.Orders.Summarize(ctx, filter)
	if err != nil {
		return order.Summary{}, err
	}
	if summary.MixedCurrency {
		return order.Summary{}, common.Unprocessable("MIXED_CURRENCY", "selected orders use more than one currency", summary.Lines)
	}
	return summary, nil
}

// Issue allocates the next invoice number of the day, records the invoice as
// queued and schedules its snapshot.
func (s *Service) Issue(ctx context.Context, filter order.Filter) (Invoice, error) {
	if s.Store == nil {
		return Invoice{}, ErrStoreUnavailable
	}
	if s.Locker == nil || s.Tasks == nil {
		return Invoice{}, errors.New("invoice: locker or task client not configured")
	}
	summary, err := s.Preview(ctx, filter)
	if err != nil {
		return Invoice{}, err
	}
	if len(summary.Lines) == 0 {
		return Invoice{}, common.Unprocessable("EMPTY_INVOICE", "no orders match the selection", nil)
	}
	adminID, _ := common.AdminID(ctx)

	var created Invoice
	err = s.Locker.WithLock(ctx, numberLock, func(ctx context.Context) error {
		day := s.now()
		last, err := s.Store.LastSequence(ctx, NumberPrefix(day))
		if err != nil {
			return fmt.Errorf("last invoice sequence: %w", err)
		}
		created, err = s.Store.Insert(ctx, Invoice{
			Number:   FormatNumber(day, last+1),
			Filter:   filter,
			Status:   StatusQueued,
			Currency: summary.Currency,
			IssuedBy: adminID,
		})
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}

	task, err := NewSnapshotTask(created.ID)
	if err == nil {
		_, err = s.Tasks.EnqueueContext(ctx, task, asynq.TaskID(created.ID))
	}
	if err != nil {
		if ferr := s.Store.Fail(ctx, created.ID, "enqueue snapshot failed"); ferr != nil {
			zerolog.Ctx(ctx).Error().Err(ferr).Str("invoice_id", created.ID).Msg("mark invoice failed")
		}
		obs.CountInvoice("failed")
		return Invoice{}, fmt.Errorf("enqueue invoice snapshot: %w", err)
	}
	obs.CountInvoice("issued")
	zerolog.Ctx(ctx).Info().Str("invoice_id", created.ID).Str("number", created.Number).Msg("invoice issued")
	created.decorate()
	return created, nil
}

// Get loads an invoice.
func (s *Service) Get(ctx context.Context, id string) (Invoice, error) {
	if s.Store == nil {
		return Invoice{}, ErrStoreUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return Invoice{}, common.BadRequest("invalid invoice id")
	}
	inv, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, common.NotFound("invoice")
		}
		return Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	inv.decorate()
	return inv, nil
}

// List returns invoices newest first.
func (s *Service) List(ctx context.Context, page common.Page) ([]Invoice, int64, error) {
	if s.Store == nil {
		return nil, 0, ErrStoreUnavailable
	}
	items, total, err := s.Store.List(ctx, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].decorate()
	}
	return items, total, nil
}
