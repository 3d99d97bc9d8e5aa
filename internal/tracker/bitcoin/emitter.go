// Package bitcoin turns a bitcoind node into block and mempool events for
// the tracker.
package bitcoin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/localchain"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/txgraph"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/pkg/safe"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/pkg/workerpool"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const (
	defaultWorkers = 4
	defaultRPS     = 50
)

var (
	// ErrNoAgreement is returned when no emitted block is on the node's chain,
	// which means the node follows another network.
	ErrNoAgreement = errors.New("node shares no block with the emitted chain")
	// ErrTipChanged is returned when the node reorganized while a block was
	// fetched. The next call starts over.
	ErrTipChanged = errors.New("node tip changed during fetch")
)

// Emitter polls a node and emits every block after the last emitted one,
// rewinding to the highest block both sides agree on after a reorg.
type Emitter struct {
	rpc     RPCClient
	last    *localchain.CheckPoint
	pool    *workerpool.Pool
	workers int
	rps     int
	now     func() time.Time
	logger  *zap.Logger

	// mempool txids already emitted with the entry time they were emitted at
	emitted map[chainhash.Hash]uint64
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithLogger sets the emitter logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// WithWorkers sets how many transactions are fetched concurrently.
func WithWorkers(workers int) Option {
	return func(e *Emitter) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

// WithRateLimit caps transaction fetches per second. Zero disables the cap.
func WithRateLimit(rps int) Option {
	return func(e *Emitter) {
		e.rps = rps
	}
}

// WithClock overrides the eviction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Emitter) {
		e.now = now
	}
}

// NewEmitter creates an emitter that continues after last, usually the
// tracker tip.
func NewEmitter(rpc RPCClient, last *localchain.CheckPoint, opts ...Option) *Emitter {
	e := &Emitter{
		rpc:     rpc,
		last:    last,
		workers: defaultWorkers,
		rps:     defaultRPS,
		now:     time.Now,
		logger:  zap.NewNop(),
		emitted: make(map[chainhash.Hash]uint64),
	}
	for _, opt := range opts {
		opt(e)
	}
	limiter := ratelimit.NewUnlimited()
	if e.rps > 0 {
		limiter = ratelimit.New(e.rps)
	}
	e.pool = workerpool.New(e.workers, limiter)
	return e
}

// Last returns the last emitted checkpoint.
func (e *Emitter) Last() *localchain.CheckPoint {
	return e.last
}

// Reset makes the emitter continue after last, for example the tracker tip
// after an event was rejected.
func (e *Emitter) Reset(last *localchain.CheckPoint) {
	e.last = last
}

// NextBlock returns the block after the agreement point, or nil when the
// emitter is caught up with the node.
func (e *Emitter) NextBlock(ctx context.Context) (*tracker.BlockEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	count, err := e.rpc.GetBlockCount()
	if err != nil {
		return nil, fmt.Errorf("get block count: %w", err)
	}
	nodeHeight, err := safe.Uint32(count)
	if err != nil {
		return nil, fmt.Errorf("block count overflow: %w", err)
	}

	agreement, err := e.agreementPoint(ctx, nodeHeight)
	if err != nil {
		return nil, err
	}
	if agreement != e.last {
		e.logger.Info("node reorganized",
			zap.Stringer("from", e.last.BlockID()),
			zap.Stringer("agreement", agreement.BlockID()))
		e.last = agreement
	}
	if agreement.Height() >= nodeHeight {
		return nil, nil
	}

	height := agreement.Height() + 1
	hash, err := e.rpc.GetBlockHash(int64(height))
	if err != nil {
		return nil, fmt.Errorf("get block hash at height %d: %w", height, err)
	}
	block, err := e.rpc.GetBlock(hash)
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, err)
	}
	if block.BlockHash() != *hash {
		return nil, fmt.Errorf("%w: node returned block %s for %s", ErrTipChanged, block.BlockHash(), hash)
	}
	if block.Header.PrevBlock != agreement.Hash() {
		return nil, fmt.Errorf("%w: block %d:%s does not build on %s",
			ErrTipChanged, height, hash, agreement.BlockID())
	}

	checkpoint, err := agreement.Push(model.BlockID{Height: height, Hash: *hash})
	if err != nil {
		return nil, err
	}
	e.last = checkpoint
	return &tracker.BlockEvent{Block: block, Checkpoint: checkpoint}, nil
}

// agreementPoint walks back from the last emitted block to the highest one
// the node still has at the same height.
func (e *Emitter) agreementPoint(ctx context.Context, nodeHeight uint32) (*localchain.CheckPoint, error) {
	for cp := e.last; cp != nil; cp = cp.Prev() {
		if cp.Height() > nodeHeight {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hash, err := e.rpc.GetBlockHash(int64(cp.Height()))
		if err != nil {
			return nil, fmt.Errorf("get block hash at height %d: %w", cp.Height(), err)
		}
		if *hash == cp.Hash() {
			return cp, nil
		}
	}
	return nil, ErrNoAgreement
}

// Mempool reads the node mempool. Transactions not emitted before are fetched
// and reported with their mempool entry time. Expected transactions the node
// no longer holds are reported as evicted now.
func (e *Emitter) Mempool(ctx context.Context, expected []*wire.MsgTx) (tracker.MempoolEvent, error) {
	entries, err := e.rpc.GetRawMempoolVerbose()
	if err != nil {
		return tracker.MempoolEvent{}, fmt.Errorf("get raw mempool: %w", err)
	}
	evictedAt, err := safe.Uint64(e.now().Unix())
	if err != nil {
		return tracker.MempoolEvent{}, fmt.Errorf("clock overflow: %w", err)
	}

	inMempool := make(map[chainhash.Hash]uint64, len(entries))
	var fetch []chainhash.Hash
	for txid, entry := range entries {
		hash, err := chainhash.NewHashFromStr(txid)
		if err != nil {
			return tracker.MempoolEvent{}, fmt.Errorf("parse mempool txid %q: %w", txid, err)
		}
		seenAt, err := safe.Uint64(entry.Time)
		if err != nil {
			return tracker.MempoolEvent{}, fmt.Errorf("tx %s entry time overflow: %w", txid, err)
		}
		inMempool[*hash] = seenAt
		if prev, ok := e.emitted[*hash]; ok && prev >= seenAt {
			continue
		}
		fetch = append(fetch, *hash)
	}
	slices.SortFunc(fetch, model.CompareHashes)

	// a nil result means the tx left the mempool before it was fetched
	fetched, err := workerpool.Map(ctx, e.pool, fetch, func(_ context.Context, txid chainhash.Hash) (*wire.MsgTx, error) {
		tx, err := e.rpc.GetRawTransaction(&txid)
		switch {
		case isTxNotFound(err):
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("get raw transaction %s: %w", txid, err)
		}
		return tx.MsgTx(), nil
	})
	if err != nil {
		return tracker.MempoolEvent{}, err
	}
	update := make([]txgraph.SeenTx, 0, len(fetched))
	for i, tx := range fetched {
		if tx == nil {
			delete(inMempool, fetch[i])
			continue
		}
		update = append(update, txgraph.SeenTx{Tx: tx, SeenAt: inMempool[fetch[i]]})
	}

	var evicted []txgraph.EvictedTx
	for _, tx := range expected {
		txid := tx.TxHash()
		if _, ok := inMempool[txid]; ok {
			continue
		}
		evicted = append(evicted, txgraph.EvictedTx{TxID: txid, EvictedAt: evictedAt})
	}

	e.emitted = inMempool
	if len(update) > 0 || len(evicted) > 0 {
		e.logger.Debug("mempool changed",
			zap.Int("mempool", len(inMempool)),
			zap.Int("new", len(update)),
			zap.Int("evicted", len(evicted)))
	}
	return tracker.MempoolEvent{Update: update, Evicted: evicted}, nil
}

func isTxNotFound(err error) bool {
	var rpcErr *btcjson.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCNoTxInfo
}
