// Package metrics exposes Prometheus counters for ledger sync, push-down
// and reservation checks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	syncs       *prometheus.CounterVec
	syncTime    *prometheus.HistogramVec
	decisions   *prometheus.CounterVec
	pushDowns   *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	httpReqs    *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
	reconciled  *prometheus.CounterVec
}

// New registers the collectors on reg. A nil *Metrics is valid and records
// nothing.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_ledger_sync_total",
			Help: "Ledger syncs from source records by service type and outcome.",
		}, []string{"service_type", "outcome"}),
		syncTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_ledger_sync_duration_seconds",
			Help:    "Time spent syncing one source record, lock wait included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service_type"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_ledger_decisions_total",
			Help: "Staff decisions applied to ledger entries by canonical status.",
		}, []string{"service_type", "status"}),
		pushDowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_ledger_pushdown_total",
			Help: "Push-downs of ledger decisions to source records.",
		}, []string{"service_type", "outcome"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_booking_checks_total",
			Help: "Reservation conflict checks by result.",
		}, []string{"service_type", "result"}),
		httpReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "method", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_ledger_reconciled_total",
			Help: "Records visited by the reconciler job by outcome.",
		}, []string{"service_type", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.syncs, m.syncTime, m.decisions, m.pushDowns,
			m.conflicts, m.httpReqs, m.httpLatency, m.reconciled,
		)
	}
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveSync(serviceType string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.syncs.WithLabelValues(serviceType, outcome(err)).Inc()
	m.syncTime.WithLabelValues(serviceType).Observe(d.Seconds())
}

func (m *Metrics) RecordDecision(serviceType, status string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(serviceType, status).Inc()
}

// RecordPushDown counts a push-down attempt; skipped marks types without a
// reverse mapping.
func (m *Metrics) RecordPushDown(serviceType string, skipped bool, err error) {
	if m == nil {
		return
	}
	o := outcome(err)
	if skipped {
		o = "skipped"
	}
	m.pushDowns.WithLabelValues(serviceType, o).Inc()
}

func (m *Metrics) RecordConflictCheck(serviceType string, conflict bool, err error) {
	if m == nil {
		return
	}
	result := "free"
	switch {
	case err != nil:
		result = "invalid"
	case conflict:
		result = "conflict"
	}
	m.conflicts.WithLabelValues(serviceType, result).Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpReqs.WithLabelValues(route, method, statusText(code)).Inc()
	m.httpLatency.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) RecordReconciled(serviceType string, err error) {
	if m == nil {
		return
	}
	m.reconciled.WithLabelValues(serviceType, outcome(err)).Inc()
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	}
	return "2xx"
}
