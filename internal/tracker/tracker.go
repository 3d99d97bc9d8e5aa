// Package tracker follows the outputs paying a set of watched scripts across
// blocks, reorgs and the mempool, and stages every change as a mergeable
// ChangeSet for persistence.
//
// A Tracker is not safe for concurrent use.
package tracker

import (
	"cmp"
	"encoding/hex"
	"fmt"
	"iter"
	"slices"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/canonical"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/localchain"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/spkindex"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/txgraph"
	"github.com/lightningnetwork/lnd/fn/v2"
	"go.uber.org/zap"
)

// Tracker owns the local chain, the relevant transaction graph and the
// staged changes between two TakeStage calls.
type Tracker struct {
	graph   *txgraph.IndexedTxGraph
	chain   *localchain.LocalChain
	stage   ChangeSet
	secrets map[string]*btcec.PrivateKey
	network model.Network
	params  canonical.Params
	log     *zap.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(t *Tracker) {
		t.log = log
	}
}

// WithCanonicalParams sets the parameters used by every canonical read.
func WithCanonicalParams(params canonical.Params) Option {
	return func(t *Tracker) {
		t.params = params
	}
}

func newTracker(network model.Network, chain *localchain.LocalChain, opts []Option) *Tracker {
	t := &Tracker{
		graph:   txgraph.NewIndexed(spkindex.New()),
		chain:   chain,
		secrets: make(map[string]*btcec.PrivateKey),
		network: network,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With(zap.String("network", string(network)))
	return t
}

// New creates a tracker holding only the genesis block. The genesis block and
// the network are staged.
func New(network model.Network, genesis chainhash.Hash, opts ...Option) *Tracker {
	chain, changeset := localchain.FromGenesisHash(genesis)
	t := newTracker(network, chain, opts)
	t.stage.Merge(fromChain(changeset))
	t.stage.Network = fn.Some(network)
	return t
}

// NewForNetwork is New with the network's genesis block.
func NewForNetwork(network model.Network, opts ...Option) (*Tracker, error) {
	params, err := network.Params()
	if err != nil {
		return nil, err
	}
	return New(network, *params.GenesisHash, opts...), nil
}

// FromChangeSet restores a tracker from persisted changes. Secrets are not
// part of a changeset: until they are added again and Reindex is called,
// event processing fails with ErrRelevanceNotRestored.
func FromChangeSet(changeset ChangeSet, opts ...Option) (*Tracker, error) {
	network, err := changeset.Network.UnwrapOrErr(ErrMissingNetwork)
	if err != nil {
		return nil, err
	}
	chain, err := localchain.FromChangeSet(changeset.LocalChain)
	if err != nil {
		return nil, fmt.Errorf("restore local chain: %w", err)
	}
	t := newTracker(network, chain, opts)
	t.stage.Merge(fromGraph(t.graph.ApplyChangeSet(changeset.IndexedGraph)))
	t.log.Debug("restored tracker",
		zap.Stringer("tip", chain.Tip().BlockID()),
		zap.Int("txs", len(changeset.IndexedGraph.Graph.Txs)))
	return t, nil
}

// Network returns the network the tracker follows.
func (t *Tracker) Network() model.Network {
	return t.network
}

// TakeStage returns the staged changes and clears the stage.
func (t *Tracker) TakeStage() ChangeSet {
	stage := t.stage
	t.stage = ChangeSet{}
	return stage
}

// Reindex runs stored transactions through the index again and reports
// whether any new relevance was found.
func (t *Tracker) Reindex() bool {
	changeset := t.graph.Reindex()
	t.stage.Merge(fromGraph(changeset))
	return !changeset.IsEmpty()
}

// Tip returns the local chain tip.
func (t *Tracker) Tip() *localchain.CheckPoint {
	return t.chain.Tip()
}

// ConsumeBlockEvent stores the block's relevant transactions and then moves
// the chain to the event's checkpoint. When the checkpoint does not connect,
// the transactions stay stored and staged while the tip stays put.
func (t *Tracker) ConsumeBlockEvent(event BlockEvent) error {
	if err := t.checkRelevance(); err != nil {
		return err
	}
	if event.Block == nil || event.Checkpoint == nil {
		return fmt.Errorf("%w: empty event", ErrBlockMismatch)
	}
	if hash := event.Block.BlockHash(); hash != event.Checkpoint.Hash() {
		return fmt.Errorf("%w: block %s, checkpoint %s", ErrBlockMismatch, hash, event.Checkpoint.BlockID())
	}

	t.stage.Merge(fromGraph(t.graph.ApplyBlockRelevant(event.Block, event.Height())))

	changeset, err := t.chain.ApplyUpdate(event.Checkpoint)
	if err != nil {
		return fmt.Errorf("apply block %s: %w", event.Checkpoint.BlockID(), err)
	}
	t.stage.Merge(fromChain(changeset))
	return nil
}

// ConsumeMempoolEvent stores new mempool transactions, then records
// evictions.
func (t *Tracker) ConsumeMempoolEvent(event MempoolEvent) error {
	if err := t.checkRelevance(); err != nil {
		return err
	}
	t.stage.Merge(fromGraph(t.graph.BatchInsertRelevantUnconfirmed(event.Update)))
	t.stage.Merge(fromGraph(t.graph.BatchInsertRelevantEvictedAt(event.Evicted, t.chain, t.chain.Tip().BlockID())))
	return nil
}

// View resolves the canonical state at the current tip.
func (t *Tracker) View() *canonical.View {
	return canonical.Resolve(t.graph.Graph(), t.chain, t.chain.Tip().BlockID(), t.params)
}

// ListCanonicalTxs yields canonical transactions at the current tip.
func (t *Tracker) ListCanonicalTxs() iter.Seq[canonical.CanonicalTx] {
	return canonical.ListCanonicalTxs(t.graph.Graph(), t.chain, t.chain.Tip().BlockID(), t.params)
}

// UTXOs yields every canonical unspent watched output with its script.
func (t *Tracker) UTXOs() iter.Seq2[[]byte, canonical.FullTxOut] {
	return func(yield func([]byte, canonical.FullTxOut) bool) {
		index := t.graph.Index()
		unspents := canonical.FilterChainUnspents(t.graph.Graph(), t.chain, t.chain.Tip().BlockID(), t.params,
			index.Outpoints())
		for out := range unspents {
			script, _ := index.SpkAt(out.KeyID)
			if !yield(script, out) {
				return
			}
		}
	}
}

// ExpectedMempoolTxs yields canonical unconfirmed transactions.
func (t *Tracker) ExpectedMempoolTxs() iter.Seq[*wire.MsgTx] {
	return func(yield func(*wire.MsgTx) bool) {
		for tx := range t.ListCanonicalTxs() {
			if tx.Position.IsConfirmed() {
				continue
			}
			if !yield(tx.Tx) {
				return
			}
		}
	}
}

// SentAndReceived sums the watched outputs tx spends and the value it pays to
// watched scripts.
func (t *Tracker) SentAndReceived(tx *wire.MsgTx) (sent, received btcutil.Amount) {
	return t.graph.Index().SentAndReceived(tx)
}

// Balance sums canonical unspent outputs. Mempool outputs paying a script
// with a known secret count as trusted.
func (t *Tracker) Balance() canonical.Balance {
	return t.View().Balance(t.graph.Index().Outpoints(), func(key spkindex.KeyID) bool {
		_, ok := t.secrets[string(key)]
		return ok
	})
}

// checkRelevance fails while restored outputs are not mapped to scripts.
func (t *Tracker) checkRelevance() error {
	if t.graph.Index().UnresolvedLen() == 0 {
		return nil
	}
	var (
		outpoints []wire.OutPoint
		scripts   [][]byte
		seen      = make(map[string]struct{})
	)
	for op := range t.graph.Index().Unresolved() {
		outpoints = append(outpoints, op)
		out, ok := t.graph.Graph().TxOut(op)
		if !ok {
			continue
		}
		if _, ok := seen[string(out.PkScript)]; ok {
			continue
		}
		seen[string(out.PkScript)] = struct{}{}
		scripts = append(scripts, out.PkScript)
	}
	if len(outpoints) == 0 {
		return nil
	}
	slices.SortFunc(scripts, func(a, b []byte) int {
		return slices.Compare(a, b)
	})
	slices.SortFunc(outpoints, func(a, b wire.OutPoint) int {
		if c := model.CompareHashes(a.Hash, b.Hash); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return &RelevanceNotRestoredError{MissingScripts: scripts, Outpoints: outpoints}
}

func zapScript(script []byte) zap.Field {
	return zap.String("script", hex.EncodeToString(script))
}
