package txgraph

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
)

// TxAnchor ties a transaction to a block that confirms it.
type TxAnchor struct {
	TxID   chainhash.Hash
	Anchor model.ConfirmationBlockTime
}

// ChangeSet is a mergeable diff of graph facts. Merging takes the union of
// transactions, floating outputs and anchors, and the maximum of timestamps,
// so it is associative, commutative and idempotent.
type ChangeSet struct {
	Txs         map[chainhash.Hash]*wire.MsgTx
	TxOuts      map[wire.OutPoint]*wire.TxOut
	Anchors     map[TxAnchor]struct{}
	LastSeen    map[chainhash.Hash]uint64
	LastEvicted map[chainhash.Hash]uint64
}

// Merge folds other into c.
func (c *ChangeSet) Merge(other ChangeSet) {
	for txid, tx := range other.Txs {
		c.addTx(txid, tx)
	}
	for op, out := range other.TxOuts {
		c.addTxOut(op, out)
	}
	for anchor := range other.Anchors {
		c.addAnchor(anchor)
	}
	for txid, seen := range other.LastSeen {
		c.LastSeen = maxTime(c.LastSeen, txid, seen)
	}
	for txid, evicted := range other.LastEvicted {
		c.LastEvicted = maxTime(c.LastEvicted, txid, evicted)
	}
}

// IsEmpty reports whether the changeset carries no facts.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Txs) == 0 &&
		len(c.TxOuts) == 0 &&
		len(c.Anchors) == 0 &&
		len(c.LastSeen) == 0 &&
		len(c.LastEvicted) == 0
}

func (c *ChangeSet) addTx(txid chainhash.Hash, tx *wire.MsgTx) {
	if c.Txs == nil {
		c.Txs = make(map[chainhash.Hash]*wire.MsgTx)
	}
	if existing, ok := c.Txs[txid]; ok && !preferTx(tx, existing) {
		return
	}
	c.Txs[txid] = tx
}

func (c *ChangeSet) addTxOut(op wire.OutPoint, out *wire.TxOut) {
	if c.TxOuts == nil {
		c.TxOuts = make(map[wire.OutPoint]*wire.TxOut)
	}
	if existing, ok := c.TxOuts[op]; ok && !preferTxOut(out, existing) {
		return
	}
	c.TxOuts[op] = out
}

func (c *ChangeSet) addAnchor(anchor TxAnchor) {
	if c.Anchors == nil {
		c.Anchors = make(map[TxAnchor]struct{})
	}
	c.Anchors[anchor] = struct{}{}
}

func maxTime(times map[chainhash.Hash]uint64, txid chainhash.Hash, t uint64) map[chainhash.Hash]uint64 {
	if times == nil {
		times = make(map[chainhash.Hash]uint64)
	}
	if existing, ok := times[txid]; !ok || t > existing {
		times[txid] = t
	}
	return times
}

// preferTx orders two encodings of the same txid by witness hash so either
// merge order keeps the same one.
func preferTx(candidate, existing *wire.MsgTx) bool {
	if candidate == existing {
		return false
	}
	a, b := candidate.WitnessHash(), existing.WitnessHash()
	return model.CompareHashes(a, b) > 0
}

func preferTxOut(candidate, existing *wire.TxOut) bool {
	if candidate.Value != existing.Value {
		return candidate.Value > existing.Value
	}
	return bytes.Compare(candidate.PkScript, existing.PkScript) > 0
}
