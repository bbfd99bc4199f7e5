// Package metrics holds the prometheus collectors for custody operations.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sign request results.
const (
	ResultOK             = "ok"
	ResultUnknownAddress = "unknown_address"
	ResultBadCode        = "bad_code"
	ResultError          = "error"
)

// Metrics groups the collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	WalletsCreated  *prometheus.CounterVec
	WalletsDeleted  prometheus.Counter
	SignRequests    *prometheus.CounterVec
	MFAFailures     *prometheus.CounterVec
	KeyExports      prometheus.Counter
	SigningDuration prometheus.Histogram
}

// NewMetrics creates and registers the custody collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		WalletsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custody_wallets_created_total",
				Help: "Wallets provisioned, by origin",
			},
			[]string{"origin"},
		),
		WalletsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "custody_wallets_deleted_total",
			Help: "Wallets deleted",
		}),
		SignRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custody_sign_requests_total",
				Help: "Signing requests, by result",
			},
			[]string{"result"},
		),
		MFAFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "custody_mfa_failures_total",
				Help: "Rejected second-factor checks, by operation",
			},
			[]string{"operation"},
		),
		KeyExports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "custody_key_exports_total",
			Help: "Private keys exported from the cold custodian",
		}),
		SigningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "custody_signing_duration_seconds",
			Help:    "Time spent inside the custodian producing a signature",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.Registry.MustRegister(
		m.WalletsCreated,
		m.WalletsDeleted,
		m.SignRequests,
		m.MFAFailures,
		m.KeyExports,
		m.SigningDuration,
	)
	return m
}

// ObserveSigning records how long a signature took.
func (m *Metrics) ObserveSigning(start time.Time) {
	m.SigningDuration.Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
