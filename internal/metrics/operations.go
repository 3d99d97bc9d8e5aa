// Package metrics holds the prometheus collectors of the spk tracker.
package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blockinsight7000"

// operations counts and times one kind of operation. The status label is
// appended to the given labels.
type operations struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newOperations(subsystem, prefix, what string, buckets []float64, labels ...string) operations {
	labels = append(labels, "status")
	return operations{
		total: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      prefix + "_total",
			Help:      "Count of " + what + ".",
		}, labels),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      prefix + "_duration_seconds",
			Help:      "Duration of " + what + ".",
			Buckets:   buckets,
		}, labels),
	}
}

func (o operations) observe(err error, started time.Time, labels ...string) {
	labels = append(labels, statusOf(err))
	o.total.WithLabelValues(labels...).Inc()
	o.duration.WithLabelValues(labels...).Observe(time.Since(started).Seconds())
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func networkLabel(network model.Network) string {
	if network == "" {
		return "unknown"
	}
	return string(network)
}
