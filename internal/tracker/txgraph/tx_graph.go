// Package txgraph stores transactions with their confirmation anchors and
// mempool timestamps. Every mutation reports the facts it added as a ChangeSet.
package txgraph

import (
	"iter"
	"maps"
	"slices"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// TxNode is a full transaction with everything the graph knows about it.
type TxNode struct {
	TxID        chainhash.Hash
	Tx          *wire.MsgTx
	Anchors     []model.ConfirmationBlockTime
	LastSeen    fn.Option[uint64]
	LastEvicted fn.Option[uint64]
}

// TxGraph is an append-only store of transaction facts.
type TxGraph struct {
	txs         map[chainhash.Hash]*wire.MsgTx
	txOuts      map[wire.OutPoint]*wire.TxOut
	anchors     map[chainhash.Hash]map[model.ConfirmationBlockTime]struct{}
	lastSeen    map[chainhash.Hash]uint64
	lastEvicted map[chainhash.Hash]uint64
	spends      map[wire.OutPoint]map[chainhash.Hash]struct{}
}

// New returns an empty graph.
func New() *TxGraph {
	return &TxGraph{
		txs:         make(map[chainhash.Hash]*wire.MsgTx),
		txOuts:      make(map[wire.OutPoint]*wire.TxOut),
		anchors:     make(map[chainhash.Hash]map[model.ConfirmationBlockTime]struct{}),
		lastSeen:    make(map[chainhash.Hash]uint64),
		lastEvicted: make(map[chainhash.Hash]uint64),
		spends:      make(map[wire.OutPoint]map[chainhash.Hash]struct{}),
	}
}

// InsertTx stores tx. The changeset is empty when the same encoding is
// already stored.
func (g *TxGraph) InsertTx(tx *wire.MsgTx) ChangeSet {
	var changeset ChangeSet
	txid := tx.TxHash()
	existing, ok := g.txs[txid]
	if ok && !preferTx(tx, existing) {
		return changeset
	}
	g.txs[txid] = tx
	if !ok && !blockchain.IsCoinBaseTx(tx) {
		for _, in := range tx.TxIn {
			spenders, found := g.spends[in.PreviousOutPoint]
			if !found {
				spenders = make(map[chainhash.Hash]struct{})
				g.spends[in.PreviousOutPoint] = spenders
			}
			spenders[txid] = struct{}{}
		}
	}
	changeset.addTx(txid, tx)
	return changeset
}

// InsertTxOut stores an output whose transaction is not known in full.
func (g *TxGraph) InsertTxOut(op wire.OutPoint, out *wire.TxOut) ChangeSet {
	var changeset ChangeSet
	if existing, ok := g.txOuts[op]; ok && !preferTxOut(out, existing) {
		return changeset
	}
	g.txOuts[op] = out
	changeset.addTxOut(op, out)
	return changeset
}

// InsertAnchor records that txid is confirmed by anchor.
func (g *TxGraph) InsertAnchor(txid chainhash.Hash, anchor model.ConfirmationBlockTime) ChangeSet {
	var changeset ChangeSet
	anchors, ok := g.anchors[txid]
	if !ok {
		anchors = make(map[model.ConfirmationBlockTime]struct{})
		g.anchors[txid] = anchors
	}
	if _, ok := anchors[anchor]; ok {
		return changeset
	}
	anchors[anchor] = struct{}{}
	changeset.addAnchor(TxAnchor{TxID: txid, Anchor: anchor})
	return changeset
}

// InsertSeenAt raises the last time txid was seen in the mempool.
func (g *TxGraph) InsertSeenAt(txid chainhash.Hash, seenAt uint64) ChangeSet {
	var changeset ChangeSet
	if existing, ok := g.lastSeen[txid]; ok && existing >= seenAt {
		return changeset
	}
	g.lastSeen[txid] = seenAt
	changeset.LastSeen = maxTime(changeset.LastSeen, txid, seenAt)
	return changeset
}

// InsertEvictedAt raises the last time txid left the mempool.
func (g *TxGraph) InsertEvictedAt(txid chainhash.Hash, evictedAt uint64) ChangeSet {
	var changeset ChangeSet
	if existing, ok := g.lastEvicted[txid]; ok && existing >= evictedAt {
		return changeset
	}
	g.lastEvicted[txid] = evictedAt
	changeset.LastEvicted = maxTime(changeset.LastEvicted, txid, evictedAt)
	return changeset
}

// ApplyChangeSet inserts every fact in changeset and returns the ones that
// were new to the graph.
func (g *TxGraph) ApplyChangeSet(changeset ChangeSet) ChangeSet {
	var applied ChangeSet
	for _, txid := range sortedHashes(maps.Keys(changeset.Txs)) {
		applied.Merge(g.InsertTx(changeset.Txs[txid]))
	}
	for op, out := range changeset.TxOuts {
		applied.Merge(g.InsertTxOut(op, out))
	}
	for anchor := range changeset.Anchors {
		applied.Merge(g.InsertAnchor(anchor.TxID, anchor.Anchor))
	}
	for txid, seen := range changeset.LastSeen {
		applied.Merge(g.InsertSeenAt(txid, seen))
	}
	for txid, evicted := range changeset.LastEvicted {
		applied.Merge(g.InsertEvictedAt(txid, evicted))
	}
	return applied
}

// InitialChangeSet returns a changeset that recreates the graph.
func (g *TxGraph) InitialChangeSet() ChangeSet {
	var changeset ChangeSet
	for txid, tx := range g.txs {
		changeset.addTx(txid, tx)
	}
	for op, out := range g.txOuts {
		changeset.addTxOut(op, out)
	}
	for txid, anchors := range g.anchors {
		for anchor := range anchors {
			changeset.addAnchor(TxAnchor{TxID: txid, Anchor: anchor})
		}
	}
	for txid, seen := range g.lastSeen {
		changeset.LastSeen = maxTime(changeset.LastSeen, txid, seen)
	}
	for txid, evicted := range g.lastEvicted {
		changeset.LastEvicted = maxTime(changeset.LastEvicted, txid, evicted)
	}
	return changeset
}

// Tx returns a stored full transaction.
func (g *TxGraph) Tx(txid chainhash.Hash) (*wire.MsgTx, bool) {
	tx, ok := g.txs[txid]
	return tx, ok
}

// TxNode returns the full transaction txid with its anchors and timestamps.
func (g *TxGraph) TxNode(txid chainhash.Hash) (TxNode, bool) {
	tx, ok := g.txs[txid]
	if !ok {
		return TxNode{}, false
	}
	return TxNode{
		TxID:        txid,
		Tx:          tx,
		Anchors:     g.Anchors(txid),
		LastSeen:    g.LastSeen(txid),
		LastEvicted: g.LastEvicted(txid),
	}, true
}

// FullTxs yields every full transaction ordered by txid.
func (g *TxGraph) FullTxs() iter.Seq[TxNode] {
	return func(yield func(TxNode) bool) {
		for _, txid := range sortedHashes(maps.Keys(g.txs)) {
			node, _ := g.TxNode(txid)
			if !yield(node) {
				return
			}
		}
	}
}

// TxOut returns the output at op from a full transaction or a floating output.
func (g *TxGraph) TxOut(op wire.OutPoint) (*wire.TxOut, bool) {
	if tx, ok := g.txs[op.Hash]; ok {
		if int(op.Index) >= len(tx.TxOut) {
			return nil, false
		}
		return tx.TxOut[op.Index], true
	}
	out, ok := g.txOuts[op]
	return out, ok
}

// FloatingTxOuts yields outputs stored without their transaction.
func (g *TxGraph) FloatingTxOuts() iter.Seq2[wire.OutPoint, *wire.TxOut] {
	return maps.All(g.txOuts)
}

// Spends returns the txids of stored transactions spending op, ordered by txid.
func (g *TxGraph) Spends(op wire.OutPoint) []chainhash.Hash {
	return sortedHashes(maps.Keys(g.spends[op]))
}

// Anchors returns the anchors of txid in ascending order.
func (g *TxGraph) Anchors(txid chainhash.Hash) []model.ConfirmationBlockTime {
	anchors := slices.Collect(maps.Keys(g.anchors[txid]))
	slices.SortFunc(anchors, func(a, b model.ConfirmationBlockTime) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return anchors
}

// LastSeen returns when txid was last seen unconfirmed.
func (g *TxGraph) LastSeen(txid chainhash.Hash) fn.Option[uint64] {
	if seen, ok := g.lastSeen[txid]; ok {
		return fn.Some(seen)
	}
	return fn.None[uint64]()
}

// LastEvicted returns when txid was last evicted from the mempool.
func (g *TxGraph) LastEvicted(txid chainhash.Hash) fn.Option[uint64] {
	if evicted, ok := g.lastEvicted[txid]; ok {
		return fn.Some(evicted)
	}
	return fn.None[uint64]()
}

// DirectConflicts yields the input index of tx and each other stored
// transaction spending the same outpoint.
func (g *TxGraph) DirectConflicts(tx *wire.MsgTx) iter.Seq2[int, chainhash.Hash] {
	return func(yield func(int, chainhash.Hash) bool) {
		if blockchain.IsCoinBaseTx(tx) {
			return
		}
		txid := tx.TxHash()
		for vin, in := range tx.TxIn {
			for _, spender := range g.Spends(in.PreviousOutPoint) {
				if spender == txid {
					continue
				}
				if !yield(vin, spender) {
					return
				}
			}
		}
	}
}

func sortedHashes(hashes iter.Seq[chainhash.Hash]) []chainhash.Hash {
	sorted := slices.Collect(hashes)
	slices.SortFunc(sorted, model.CompareHashes)
	return sorted
}
