package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const trackerSubsystem = "spk_tracker"

var (
	blockEvents = newOperations(trackerSubsystem, "block_events",
		"block events fetched and applied", prometheus.DefBuckets, "network")
	mempoolEvents = newOperations(trackerSubsystem, "mempool_events",
		"mempool events fetched and applied", prometheus.DefBuckets, "network")

	tipHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: trackerSubsystem,
		Name:      "tip_height",
		Help:      "Height of the tracker chain tip.",
	}, []string{"network"})

	mempoolEventTxs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: trackerSubsystem,
		Name:      "mempool_event_txs",
		Help:      "Transactions per mempool event.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"network", "kind"})

	persistTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: trackerSubsystem,
		Name:      "persist_total",
		Help:      "Count of changeset writes.",
	}, []string{"network", "status"})

	persistBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: trackerSubsystem,
		Name:      "persist_bytes",
		Help:      "Encoded size of written changesets.",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
	}, []string{"network"})
)

// TrackerService records the run loop of one network's tracker.
type TrackerService struct {
	network string
}

// NewTrackerService returns a TrackerService collector.
func NewTrackerService(network model.Network) *TrackerService {
	return &TrackerService{network: networkLabel(network)}
}

// ObserveBlock records a block event. The tip gauge only moves on success.
func (m TrackerService) ObserveBlock(err error, height uint32, started time.Time) {
	blockEvents.observe(err, started, m.network)
	if err == nil {
		tipHeight.WithLabelValues(m.network).Set(float64(height))
	}
}

// ObserveMempool records a mempool event and how many txs it carried.
func (m TrackerService) ObserveMempool(err error, seen, evicted int, started time.Time) {
	mempoolEvents.observe(err, started, m.network)
	if err != nil {
		return
	}
	mempoolEventTxs.WithLabelValues(m.network, "seen").Observe(float64(seen))
	mempoolEventTxs.WithLabelValues(m.network, "evicted").Observe(float64(evicted))
}

// ObservePersist records a changeset write.
func (m TrackerService) ObservePersist(err error, size int) {
	persistTotal.WithLabelValues(m.network, statusOf(err)).Inc()
	if err == nil {
		persistBytes.WithLabelValues(m.network).Observe(float64(size))
	}
}
