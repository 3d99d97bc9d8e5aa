package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/prometheus/client_golang/prometheus"
)

var rpcOperations = newOperations("rpc_client", "operations", "bitcoind RPC calls",
	prometheus.DefBuckets, "operation", "network")

// RPCClient records bitcoind RPC calls of one network.
type RPCClient struct {
	network string
}

// NewRPCClient returns an RPCClient collector.
func NewRPCClient(network model.Network) *RPCClient {
	return &RPCClient{network: networkLabel(network)}
}

// Observe records one RPC call.
func (m RPCClient) Observe(operation string, err error, started time.Time) {
	rpcOperations.observe(err, started, operation, m.network)
}
