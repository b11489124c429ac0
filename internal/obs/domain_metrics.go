package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersSavedTotal counts persisted orders by operation (create/update).
	OrdersSavedTotal *prometheus.CounterVec
	// OrderRejectedTotal counts order saves blocked by validation, by problem code.
	OrderRejectedTotal *prometheus.CounterVec
	// InvoicesTotal counts invoice lifecycle outcomes (issued/ready/failed).
	InvoicesTotal *prometheus.CounterVec
	// LedgerEntriesTotal counts recorded cash ledger entries by direction.
	LedgerEntriesTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersSavedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_saved_total",
			Help:      "Count of orders persisted by operation.",
		}, []string{"op"})
		OrderRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_rejected_total",
			Help:      "Count of order saves blocked by validation problems.",
		}, []string{"code"})
		InvoicesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_total",
			Help:      "Count of invoice lifecycle outcomes.",
		}, []string{"result"})
		LedgerEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entries_total",
			Help:      "Count of recorded cash ledger entries.",
		}, []string{"direction"})

		for _, target := range []**prometheus.CounterVec{&OrdersSavedTotal, &OrderRejectedTotal, &InvoicesTotal, &LedgerEntriesTotal} {
			Register(reg, target)
		}
	})
}

// CountOrderSaved increments OrdersSavedTotal when metrics are registered.
func CountOrderSaved(op string) {
	if OrdersSavedTotal != nil {
		OrdersSavedTotal.WithLabelValues(op).Inc()
	}
}

// CountOrderRejected increments OrderRejectedTotal when metrics are registered.
func CountOrderRejected(code string) {
	if OrderRejectedTotal != nil {
		OrderRejectedTotal.WithLabelValues(code).Inc()
	}
}

// CountInvoice increments InvoicesTotal when metrics are registered.
func CountInvoice(result string) {
	if InvoicesTotal != nil {
		InvoicesTotal.WithLabelValues(result).Inc()
	}
}

// CountLedgerEntry increments LedgerEntriesTotal when metrics are registered.
func CountLedgerEntry(direction string) {
	if LedgerEntriesTotal != nil {
		LedgerEntriesTotal.WithLabelValues(direction).Inc()
	}
}
