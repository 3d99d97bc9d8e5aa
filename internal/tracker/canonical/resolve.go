package canonical

import (
	"cmp"
	"iter"
	"slices"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/txgraph"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Graph is the read side of a transaction graph.
type Graph interface {
	FullTxs() iter.Seq[txgraph.TxNode]
	TxNode(txid chainhash.Hash) (txgraph.TxNode, bool)
}

// View is one resolution of the graph against a chain tip.
type View struct {
	tip     model.BlockID
	txs     []CanonicalTx
	byID    map[chainhash.Hash]int
	spentBy map[wire.OutPoint]chainhash.Hash
}

// Resolve picks the canonical transactions of graph for the chain ending at
// tip.
//
// Transactions anchored in that chain are taken first in height order. Then
// AssumeCanonical entries, then mempool transactions that were not evicted
// ordered by Params.Policy. A transaction is admitted together with its stored
// ancestors only when none of them spends an output already spent by a
// canonical transaction.
func Resolve(graph Graph, oracle model.ChainOracle, tip model.BlockID, params Params) *View {
	r := &resolver{
		graph: graph,
		view: &View{
			tip:     tip,
			byID:    make(map[chainhash.Hash]int),
			spentBy: make(map[wire.OutPoint]chainhash.Hash),
		},
		rejected: make(map[chainhash.Hash]struct{}),
	}

	type confirmed struct {
		node   txgraph.TxNode
		anchor model.ConfirmationBlockTime
	}
	var (
		anchored []confirmed
		mempool  []txgraph.TxNode
	)
	for node := range graph.FullTxs() {
		if anchor, ok := bestAnchor(node, oracle, tip); ok {
			anchored = append(anchored, confirmed{node: node, anchor: anchor})
			continue
		}
		if node.LastSeen.IsSome() && !isEvicted(node) {
			mempool = append(mempool, node)
		}
	}

	slices.SortFunc(anchored, func(a, b confirmed) int {
		if c := cmp.Compare(a.anchor.Block.Height, b.anchor.Block.Height); c != 0 {
			return c
		}
		return model.CompareHashes(a.node.TxID, b.node.TxID)
	})
	for _, c := range anchored {
		r.tryAdmit(c.node, ChainPosition{Anchor: fn.Some(c.anchor)})
	}

	for _, txid := range params.AssumeCanonical {
		node, ok := graph.TxNode(txid)
		if !ok {
			continue
		}
		r.tryAdmit(node, ChainPosition{LastSeen: node.LastSeen})
	}

	slices.SortFunc(mempool, params.Policy.compare)
	for _, node := range mempool {
		r.tryAdmit(node, ChainPosition{LastSeen: node.LastSeen})
	}

	return r.view
}

// ListCanonicalTxs yields canonical transactions, confirmed ones first by
// height. Each iteration resolves the graph again.
func ListCanonicalTxs(graph Graph, oracle model.ChainOracle, tip model.BlockID, params Params) iter.Seq[CanonicalTx] {
	return func(yield func(CanonicalTx) bool) {
		for tx := range Resolve(graph, oracle, tip, params).Txs() {
			if !yield(tx) {
				return
			}
		}
	}
}

// Tip returns the chain tip the view was resolved against.
func (v *View) Tip() model.BlockID {
	return v.tip
}

// Txs yields canonical transactions in admission order.
func (v *View) Txs() iter.Seq[CanonicalTx] {
	return func(yield func(CanonicalTx) bool) {
		for _, tx := range v.txs {
			if !yield(tx) {
				return
			}
		}
	}
}

// Tx returns txid if it is canonical.
func (v *View) Tx(txid chainhash.Hash) (CanonicalTx, bool) {
	i, ok := v.byID[txid]
	if !ok {
		return CanonicalTx{}, false
	}
	return v.txs[i], true
}

// SpentBy returns the canonical transaction spending op.
func (v *View) SpentBy(op wire.OutPoint) fn.Option[chainhash.Hash] {
	if txid, ok := v.spentBy[op]; ok {
		return fn.Some(txid)
	}
	return fn.None[chainhash.Hash]()
}

func (p ConflictPolicy) compare(a, b txgraph.TxNode) int {
	seenA, seenB := a.LastSeen.UnwrapOr(0), b.LastSeen.UnwrapOr(0)
	if c := cmp.Compare(seenB, seenA); c != 0 {
		return c
	}
	return model.CompareHashes(a.TxID, b.TxID)
}

type resolver struct {
	graph    Graph
	view     *View
	rejected map[chainhash.Hash]struct{}
}

func (r *resolver) tryAdmit(node txgraph.TxNode, pos ChainPosition) {
	if _, ok := r.view.byID[node.TxID]; ok {
		return
	}
	if _, ok := r.rejected[node.TxID]; ok {
		return
	}

	chain := r.ancestry(node)
	claimed := make(map[wire.OutPoint]chainhash.Hash)
	for _, n := range chain {
		if _, ok := r.rejected[n.TxID]; ok {
			r.rejected[node.TxID] = struct{}{}
			return
		}
		if pos.IsUnconfirmed() && n.TxID != node.TxID && isEvicted(n) {
			r.rejected[node.TxID] = struct{}{}
			return
		}
		if blockchain.IsCoinBaseTx(n.Tx) {
			continue
		}
		for _, in := range n.Tx.TxIn {
			spender, ok := r.view.spentBy[in.PreviousOutPoint]
			if !ok {
				spender, ok = claimed[in.PreviousOutPoint]
			}
			if ok && spender != n.TxID {
				r.rejected[n.TxID] = struct{}{}
				r.rejected[node.TxID] = struct{}{}
				return
			}
			claimed[in.PreviousOutPoint] = n.TxID
		}
	}

	for _, n := range chain {
		p := pos
		if n.TxID != node.TxID {
			if pos.IsConfirmed() {
				p.TransitivelyBy = fn.Some(node.TxID)
			} else {
				p.LastSeen = n.LastSeen.Alt(pos.LastSeen)
			}
		}
		r.admit(n, p)
	}
}

func (r *resolver) admit(node txgraph.TxNode, pos ChainPosition) {
	r.view.byID[node.TxID] = len(r.view.txs)
	r.view.txs = append(r.view.txs, CanonicalTx{TxID: node.TxID, Tx: node.Tx, Position: pos})
	if blockchain.IsCoinBaseTx(node.Tx) {
		return
	}
	for _, in := range node.Tx.TxIn {
		r.view.spentBy[in.PreviousOutPoint] = node.TxID
	}
}

// ancestry returns node and its stored ancestors that are not canonical yet,
// ancestors first.
func (r *resolver) ancestry(node txgraph.TxNode) []txgraph.TxNode {
	var (
		ordered []txgraph.TxNode
		visited = make(map[chainhash.Hash]struct{})
	)
	var visit func(n txgraph.TxNode)
	visit = func(n txgraph.TxNode) {
		visited[n.TxID] = struct{}{}
		if !blockchain.IsCoinBaseTx(n.Tx) {
			for _, in := range n.Tx.TxIn {
				parentID := in.PreviousOutPoint.Hash
				if _, ok := visited[parentID]; ok {
					continue
				}
				if _, ok := r.view.byID[parentID]; ok {
					continue
				}
				parent, ok := r.graph.TxNode(parentID)
				if !ok {
					continue
				}
				visit(parent)
			}
		}
		ordered = append(ordered, n)
	}
	visit(node)
	return ordered
}

func bestAnchor(node txgraph.TxNode, oracle model.ChainOracle, tip model.BlockID) (model.ConfirmationBlockTime, bool) {
	for _, anchor := range node.Anchors {
		if oracle.IsBlockInChain(anchor.Block, tip) {
			return anchor, true
		}
	}
	return model.ConfirmationBlockTime{}, false
}

// isEvicted reports whether the last eviction is not older than the last
// sighting.
func isEvicted(node txgraph.TxNode) bool {
	if node.LastEvicted.IsNone() {
		return false
	}
	return node.LastEvicted.UnwrapOr(0) >= node.LastSeen.UnwrapOr(0)
}
