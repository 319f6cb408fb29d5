package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dtl"

// Metrics holds the collectors both roles report to. Each process owns a
// registry so the submitter and confirmer can share one binary.
type Metrics struct {
	Registry *prometheus.Registry

	Submissions        *prometheus.CounterVec
	MetadataFailures   prometheus.Counter
	CacheWriteFailures *prometheus.CounterVec
	ConfirmerEvents    *prometheus.CounterVec
	Resubscriptions    prometheus.Counter
	LastBlock          prometheus.Gauge
	RateLimited        prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Transfer submissions by result",
		}, []string{"result"}),

		MetadataFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_upload_failures_total",
			Help:      "Metadata documents that could not be stored",
		}),

		CacheWriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_failures_total",
			Help:      "Ledger cache writes that failed, by writer",
		}, []string{"writer"}),

		ConfirmerEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmer_steps_total",
			Help:      "Confirmer reconciliation steps by step and result",
		}, []string{"step", "result"}),

		Resubscriptions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmer_resubscriptions_total",
			Help:      "Times the confirmer re-established its event subscription",
		}),

		LastBlock: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "confirmer_last_block",
			Help:      "Highest ledger block the confirmer has processed",
		}),

		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_rate_limited_total",
			Help:      "Transfer requests rejected by the rate limiter",
		}),
	}
}
