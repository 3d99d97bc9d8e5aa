package txgraph

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/spkindex"
)

// IndexedChangeSet pairs a graph diff with the relevance facts discovered
// alongside it.
type IndexedChangeSet struct {
	Graph   ChangeSet
	Indexer spkindex.ChangeSet
}

// Merge folds other into c.
func (c *IndexedChangeSet) Merge(other IndexedChangeSet) {
	c.Graph.Merge(other.Graph)
	c.Indexer.Merge(other.Indexer)
}

// IsEmpty reports whether neither part carries facts.
func (c IndexedChangeSet) IsEmpty() bool {
	return c.Graph.IsEmpty() && c.Indexer.IsEmpty()
}

// SeenTx is a mempool transaction with the time it was observed.
type SeenTx struct {
	Tx     *wire.MsgTx
	SeenAt uint64
}

// EvictedTx names a transaction that left the mempool at EvictedAt.
type EvictedTx struct {
	TxID      chainhash.Hash
	EvictedAt uint64
}

// IndexedTxGraph keeps only transactions relevant to the index.
type IndexedTxGraph struct {
	graph *TxGraph
	index *spkindex.Index
}

// NewIndexed returns an empty graph filtered by index.
func NewIndexed(index *spkindex.Index) *IndexedTxGraph {
	return &IndexedTxGraph{graph: New(), index: index}
}

// Graph returns the underlying transaction graph.
func (g *IndexedTxGraph) Graph() *TxGraph {
	return g.graph
}

// Index returns the relevance index.
func (g *IndexedTxGraph) Index() *spkindex.Index {
	return g.index
}

// ApplyBlockRelevant indexes every transaction in block first, so spends of
// outputs created earlier in the same block are caught, then stores the
// relevant ones anchored at the block.
func (g *IndexedTxGraph) ApplyBlockRelevant(block *wire.MsgBlock, height uint32) IndexedChangeSet {
	var changeset IndexedChangeSet
	anchor := model.ConfirmationBlockTime{
		Block:            model.BlockID{Height: height, Hash: block.BlockHash()},
		ConfirmationTime: uint64(block.Header.Timestamp.Unix()),
	}
	for _, tx := range block.Transactions {
		changeset.Indexer.Merge(g.index.IndexTx(tx))
	}
	for _, tx := range block.Transactions {
		if !g.index.IsTxRelevant(tx) {
			continue
		}
		changeset.Graph.Merge(g.graph.InsertTx(tx))
		changeset.Graph.Merge(g.graph.InsertAnchor(tx.TxHash(), anchor))
	}
	return changeset
}

// BatchInsertRelevantUnconfirmed stores relevant mempool transactions with
// their last seen time. Anchors already recorded are left alone.
func (g *IndexedTxGraph) BatchInsertRelevantUnconfirmed(txs []SeenTx) IndexedChangeSet {
	var changeset IndexedChangeSet
	for _, seen := range txs {
		changeset.Indexer.Merge(g.index.IndexTx(seen.Tx))
	}
	for _, seen := range txs {
		if !g.index.IsTxRelevant(seen.Tx) {
			continue
		}
		changeset.Graph.Merge(g.graph.InsertTx(seen.Tx))
		changeset.Graph.Merge(g.graph.InsertSeenAt(seen.Tx.TxHash(), seen.SeenAt))
	}
	return changeset
}

// BatchInsertRelevantEvictedAt records evictions of stored transactions.
// Transactions confirmed in the chain ending at tip are skipped.
func (g *IndexedTxGraph) BatchInsertRelevantEvictedAt(evicted []EvictedTx, oracle model.ChainOracle,
	tip model.BlockID) IndexedChangeSet {

	var changeset IndexedChangeSet
	for _, e := range evicted {
		if _, ok := g.graph.Tx(e.TxID); !ok {
			continue
		}
		if g.isConfirmed(e.TxID, oracle, tip) {
			continue
		}
		changeset.Graph.Merge(g.graph.InsertEvictedAt(e.TxID, e.EvictedAt))
	}
	return changeset
}

// Reindex runs every stored transaction and floating output through the
// index again. Only relevance never reported before shows up in the result.
func (g *IndexedTxGraph) Reindex() IndexedChangeSet {
	var changeset IndexedChangeSet
	for node := range g.graph.FullTxs() {
		changeset.Indexer.Merge(g.index.IndexTx(node.Tx))
	}
	for op, out := range g.graph.FloatingTxOuts() {
		changeset.Indexer.Merge(g.index.IndexTxOut(op, out))
	}
	return changeset
}

// ApplyChangeSet restores persisted facts. Transactions in the changeset are
// indexed against the scripts already registered, and any relevance found
// that the changeset did not carry is returned.
func (g *IndexedTxGraph) ApplyChangeSet(changeset IndexedChangeSet) IndexedChangeSet {
	var discovered IndexedChangeSet
	g.index.ApplyChangeSet(changeset.Indexer)
	g.graph.ApplyChangeSet(changeset.Graph)
	for _, tx := range changeset.Graph.Txs {
		discovered.Indexer.Merge(g.index.IndexTx(tx))
	}
	for op, out := range changeset.Graph.TxOuts {
		discovered.Indexer.Merge(g.index.IndexTxOut(op, out))
	}
	return discovered
}

func (g *IndexedTxGraph) isConfirmed(txid chainhash.Hash, oracle model.ChainOracle, tip model.BlockID) bool {
	for _, anchor := range g.graph.Anchors(txid) {
		if oracle.IsBlockInChain(anchor.Block, tip) {
			return true
		}
	}
	return false
}
