package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_recorded_total",
		Help: "Total number of sales recorded",
	})

	SalesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_rejected_total",
		Help: "Total number of rejected sale submissions",
	}, []string{"reason"})

	StockAdjustmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Total number of stock quantity adjustments",
	}, []string{"direction"})

	NegativeStockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "negative_stock_total",
		Help: "Times a stock adjustment drove quantity below zero (oversell signal)",
	})

	DanglingReferencesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dangling_references_total",
		Help: "Reconciliation steps that referenced a missing product or customer",
	})

	PaymentsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_applied_total",
		Help: "Total number of payments applied to sales",
	})

	PaymentsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_rejected_total",
		Help: "Total number of rejected payment attempts",
	}, []string{"reason"})

	CustomersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "customers_created_total",
		Help: "Customers auto-created during sale identity resolution",
	})

	CustomersMatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "customers_matched_total",
		Help: "Customers deduplicated during identity resolution",
	}, []string{"key"})

	DeletesStagedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deletes_staged_total",
		Help: "Soft deletes staged with an undo window",
	}, []string{"collection"})

	DeletesUndoneTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deletes_undone_total",
		Help: "Staged deletes reverted within the undo window",
	}, []string{"collection"})

	DeletesFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deletes_finalized_total",
		Help: "Staged deletes whose undo window expired",
	}, []string{"collection"})

	BackupExportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backup_exports_total",
		Help: "Backup files exported",
	})

	BackupRestoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backup_restores_total",
		Help: "Backup restore attempts",
	}, []string{"result"})

	SnapshotRefreshLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_refresh_latency_seconds",
		Help:    "Latency of live snapshot refreshes",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
