// Package spkindex tracks which output scripts are watched and which outputs
// pay to them.
package spkindex

import (
	"iter"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// KeyID is an opaque token naming a watched script.
type KeyID string

type indexedTxOut struct {
	key   KeyID
	txOut *wire.TxOut
}

// Index maps watched scripts to the outputs that pay them.
type Index struct {
	spks       map[KeyID][]byte
	spkIndices map[string]KeyID
	txOuts     map[wire.OutPoint]indexedTxOut
	// known holds every outpoint ever reported as relevant, including
	// restored ones that are not resolved to a script yet.
	known map[wire.OutPoint]struct{}
	// unresolved counts known outpoints missing from txOuts.
	unresolved int
}

// New returns an empty index.
func New() *Index {
	return &Index{
		spks:       make(map[KeyID][]byte),
		spkIndices: make(map[string]KeyID),
		txOuts:     make(map[wire.OutPoint]indexedTxOut),
		known:      make(map[wire.OutPoint]struct{}),
	}
}

// InsertSpk starts watching script under key. It reports false when the
// script or the key is already tracked.
func (i *Index) InsertSpk(script []byte, key KeyID) bool {
	if _, ok := i.spkIndices[string(script)]; ok {
		return false
	}
	if _, ok := i.spks[key]; ok {
		return false
	}
	spk := append([]byte(nil), script...)
	i.spks[key] = spk
	i.spkIndices[string(spk)] = key
	return true
}

// SpkAt returns the script registered under key.
func (i *Index) SpkAt(key KeyID) ([]byte, bool) {
	spk, ok := i.spks[key]
	return spk, ok
}

// IndexOf returns the key a script is registered under.
func (i *Index) IndexOf(script []byte) (KeyID, bool) {
	key, ok := i.spkIndices[string(script)]
	return key, ok
}

// IsRelevant reports whether script is watched.
func (i *Index) IsRelevant(script []byte) bool {
	_, ok := i.spkIndices[string(script)]
	return ok
}

// Scripts yields every watched script with its key.
func (i *Index) Scripts() iter.Seq2[KeyID, []byte] {
	return func(yield func(KeyID, []byte) bool) {
		for key, spk := range i.spks {
			if !yield(key, spk) {
				return
			}
		}
	}
}

// IndexTxOut records op when its script is watched. The changeset holds op
// only the first time it is ever seen as relevant.
func (i *Index) IndexTxOut(op wire.OutPoint, txOut *wire.TxOut) ChangeSet {
	var changeset ChangeSet
	key, ok := i.spkIndices[string(txOut.PkScript)]
	if !ok {
		return changeset
	}
	if _, ok := i.txOuts[op]; !ok {
		if _, ok := i.known[op]; ok {
			i.unresolved--
		}
		i.txOuts[op] = indexedTxOut{key: key, txOut: txOut}
	}
	if _, ok := i.known[op]; !ok {
		i.known[op] = struct{}{}
		changeset.add(op)
	}
	return changeset
}

// IndexTx indexes every output of tx.
func (i *Index) IndexTx(tx *wire.MsgTx) ChangeSet {
	var changeset ChangeSet
	txid := tx.TxHash()
	for vout, txOut := range tx.TxOut {
		op := wire.OutPoint{Hash: txid, Index: uint32(vout)}
		changeset.Merge(i.IndexTxOut(op, txOut))
	}
	return changeset
}

// IsTxRelevant reports whether tx pays a watched script or spends an indexed
// output.
func (i *Index) IsTxRelevant(tx *wire.MsgTx) bool {
	for _, in := range tx.TxIn {
		if _, ok := i.txOuts[in.PreviousOutPoint]; ok {
			return true
		}
	}
	for _, out := range tx.TxOut {
		if i.IsRelevant(out.PkScript) {
			return true
		}
	}
	return false
}

// TxOut returns an indexed output and the key it pays.
func (i *Index) TxOut(op wire.OutPoint) (KeyID, *wire.TxOut, bool) {
	out, ok := i.txOuts[op]
	if !ok {
		return "", nil, false
	}
	return out.key, out.txOut, true
}

// Outpoints returns a copy of every indexed outpoint with its key.
func (i *Index) Outpoints() map[wire.OutPoint]KeyID {
	outpoints := make(map[wire.OutPoint]KeyID, len(i.txOuts))
	for op, out := range i.txOuts {
		outpoints[op] = out.key
	}
	return outpoints
}

// SentAndReceived sums the indexed outputs tx spends and the outputs it pays
// to watched scripts.
func (i *Index) SentAndReceived(tx *wire.MsgTx) (sent, received btcutil.Amount) {
	for _, in := range tx.TxIn {
		if out, ok := i.txOuts[in.PreviousOutPoint]; ok {
			sent += btcutil.Amount(out.txOut.Value)
		}
	}
	for _, out := range tx.TxOut {
		if i.IsRelevant(out.PkScript) {
			received += btcutil.Amount(out.Value)
		}
	}
	return sent, received
}

// ApplyChangeSet marks restored outpoints as known. They stay unresolved until
// their script is inserted and the owning transaction is indexed again.
func (i *Index) ApplyChangeSet(changeset ChangeSet) {
	for op := range changeset.Outpoints {
		if _, ok := i.known[op]; ok {
			continue
		}
		i.known[op] = struct{}{}
		if _, ok := i.txOuts[op]; !ok {
			i.unresolved++
		}
	}
}

// UnresolvedLen returns how many known outpoints are not mapped to a watched
// script.
func (i *Index) UnresolvedLen() int {
	return i.unresolved
}

// Unresolved yields known outpoints that are not mapped to a watched script.
func (i *Index) Unresolved() iter.Seq[wire.OutPoint] {
	return func(yield func(wire.OutPoint) bool) {
		for op := range i.known {
			if _, ok := i.txOuts[op]; ok {
				continue
			}
			if !yield(op) {
				return
			}
		}
	}
}
