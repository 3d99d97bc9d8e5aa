// Package rpcclient instruments the btcd JSON-RPC client with per-call metrics.
package rpcclient

import (
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Client is the subset of *rpcclient.Client the tracker calls.
	Client interface {
		GetBlockCount() (int64, error)
		GetBlockHash(blockHeight int64) (*chainhash.Hash, error)
		GetBlock(blockHash *chainhash.Hash) (*wire.MsgBlock, error)
		GetRawMempoolVerbose() (map[string]btcjson.GetRawMempoolVerboseResult, error)
		GetRawTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error)
	}

	// RPCMetrics records one call.
	RPCMetrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// ObservedClient reports every call of the wrapped client to RPCMetrics.
type ObservedClient struct {
	client     Client
	rpcMetrics RPCMetrics
}

// NewObservedClient wraps client.
func NewObservedClient(client Client, rpcMetrics RPCMetrics) *ObservedClient {
	return &ObservedClient{
		client:     client,
		rpcMetrics: rpcMetrics,
	}
}

func observe[T any](m RPCMetrics, operation string, call func() (T, error)) (T, error) {
	started := time.Now()
	res, err := call()
	m.Observe(operation, err, started)
	return res, err
}

func (r *ObservedClient) GetBlockCount() (int64, error) {
	return observe(r.rpcMetrics, "get_block_count", r.client.GetBlockCount)
}

func (r *ObservedClient) GetBlockHash(blockHeight int64) (*chainhash.Hash, error) {
	return observe(r.rpcMetrics, "get_block_hash", func() (*chainhash.Hash, error) {
		return r.client.GetBlockHash(blockHeight)
	})
}

func (r *ObservedClient) GetBlock(blockHash *chainhash.Hash) (*wire.MsgBlock, error) {
	return observe(r.rpcMetrics, "get_block", func() (*wire.MsgBlock, error) {
		return r.client.GetBlock(blockHash)
	})
}

func (r *ObservedClient) GetRawMempoolVerbose() (map[string]btcjson.GetRawMempoolVerboseResult, error) {
	return observe(r.rpcMetrics, "get_raw_mempool_verbose", r.client.GetRawMempoolVerbose)
}

func (r *ObservedClient) GetRawTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error) {
	return observe(r.rpcMetrics, "get_raw_transaction", func() (*btcutil.Tx, error) {
		return r.client.GetRawTransaction(txHash)
	})
}
