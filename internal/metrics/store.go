package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
)

var storeOperations = newOperations("clickhouse_repository", "operations", "changeset store operations",
	[]float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30},
	"operation", "network")

// ClickhouseRepository records changeset store calls.
type ClickhouseRepository struct{}

// NewClickhouseRepository returns a ClickhouseRepository collector.
func NewClickhouseRepository() *ClickhouseRepository {
	return &ClickhouseRepository{}
}

// Observe records one store call.
func (ClickhouseRepository) Observe(operation string, network model.Network, err error, started time.Time) {
	storeOperations.observe(err, started, operation, networkLabel(network))
}
