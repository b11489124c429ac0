package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/backend-jastip/internal/obs"
)

// SnapshotHandler freezes queued invoices in the worker.
type SnapshotHandler struct {
	Store  Store
	Orders Summarizer

	outcomes metric.Int64Counter
}

// NewSnapshotHandler wires the handler and its outcome counter.
func NewSnapshotHandler(store Store, orders Summarizer) (*SnapshotHandler, error) {
	counter, err := otel.Meter("github.com/noah-isme/backend-jastip/internal/invoice").Int64Counter(
		"invoice_snapshots_total",
		metric.WithDescription("Invoice snapshot task outcomes"),
	)
	if err != nil {
		return nil, err
	}
	return &SnapshotHandler{Store: store, Orders: orders, outcomes: counter}, nil
}

func (h *SnapshotHandler) count(ctx context.Context, result string) {
	obs.CountInvoice(result)
	if h.outcomes != nil {
		h.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

// ProcessTask implements asynq.Handler. Malformed payloads, missing invoices
// and selections that can no longer be invoiced are not retried.
func (h *SnapshotHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload SnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.InvoiceID == "" {
		h.count(ctx, "invalid")
		return fmt.Errorf("decode snapshot payload: %v: %w", err, asynq.SkipRetry)
	}
	log := zerolog.Ctx(ctx).With().Str("invoice_id", payload.InvoiceID).Logger()

	inv, err := h.Store.Get(ctx, payload.InvoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.count(ctx, "missing")
			return fmt.Errorf("invoice %s: %w", payload.InvoiceID, asynq.SkipRetry)
		}
		return fmt.Errorf("load invoice: %w", err)
	}
	if inv.Status != StatusQueued {
		log.Debug().Str("status", string(inv.Status)).Msg("invoice already snapshotted")
		return nil
	}

	summary, err := h.Orders.Summarize(ctx, inv.Filter)
	if err != nil {
		return fmt.Errorf("summarize invoice orders: %w", err)
	}
	reason := ""
	switch {
	case summary.MixedCurrency:
		reason = "selected orders use more than one currency"
	case len(summary.Lines) == 0:
		reason = "no orders match the selection"
	}
	if reason != "" {
		if err := h.Store.Fail(ctx, inv.ID, reason); err != nil {
			return fmt.Errorf("mark invoice failed: %w", err)
		}
		h.count(ctx, "failed")
		log.Warn().Str("reason", reason).Msg("invoice snapshot failed")
		return nil
	}
	if err := h.Store.Complete(ctx, inv.ID, summary); err != nil {
		return fmt.Errorf("complete invoice: %w", err)
	}
	h.count(ctx, "ready")
	log.Info().Int("lines", len(summary.Lines)).Float64("subtotal", summary.Subtotal).Msg("invoice ready")
	return nil
}
