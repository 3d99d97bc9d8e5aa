package canonical

import (
	"cmp"
	"iter"
	"maps"
	"slices"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/spkindex"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// CoinbaseMaturity is the number of confirmations a coinbase output needs
// before it can be spent.
const CoinbaseMaturity = 100

// FullTxOut is an output of a canonical transaction.
type FullTxOut struct {
	OutPoint     wire.OutPoint
	TxOut        *wire.TxOut
	KeyID        spkindex.KeyID
	Position     ChainPosition
	SpentBy      fn.Option[chainhash.Hash]
	IsOnCoinbase bool
}

// IsSpent reports whether a canonical transaction spends the output.
func (o FullTxOut) IsSpent() bool {
	return o.SpentBy.IsSome()
}

// IsMature reports whether the output can be spent in a block above tipHeight.
func (o FullTxOut) IsMature(tipHeight uint32) bool {
	if !o.IsOnCoinbase {
		return true
	}
	confirmed := o.Position.Height()
	height := confirmed.UnwrapOr(0)
	if confirmed.IsNone() || height > tipHeight {
		return false
	}
	return tipHeight-height+1 >= CoinbaseMaturity
}

// FilterTxOuts yields the outputs among outpoints created by canonical
// transactions, ordered by outpoint.
func (v *View) FilterTxOuts(outpoints map[wire.OutPoint]spkindex.KeyID) iter.Seq[FullTxOut] {
	return func(yield func(FullTxOut) bool) {
		for _, op := range sortedOutPoints(outpoints) {
			tx, ok := v.Tx(op.Hash)
			if !ok || int(op.Index) >= len(tx.Tx.TxOut) {
				continue
			}
			out := FullTxOut{
				OutPoint:     op,
				TxOut:        tx.Tx.TxOut[op.Index],
				KeyID:        outpoints[op],
				Position:     tx.Position,
				SpentBy:      v.SpentBy(op),
				IsOnCoinbase: blockchain.IsCoinBaseTx(tx.Tx),
			}
			if !yield(out) {
				return
			}
		}
	}
}

// FilterUnspents is FilterTxOuts without the spent outputs.
func (v *View) FilterUnspents(outpoints map[wire.OutPoint]spkindex.KeyID) iter.Seq[FullTxOut] {
	return func(yield func(FullTxOut) bool) {
		for out := range v.FilterTxOuts(outpoints) {
			if out.IsSpent() {
				continue
			}
			if !yield(out) {
				return
			}
		}
	}
}

// FilterChainUnspents resolves graph and yields the unspent outputs.
func FilterChainUnspents(graph Graph, oracle model.ChainOracle, tip model.BlockID, params Params,
	outpoints map[wire.OutPoint]spkindex.KeyID) iter.Seq[FullTxOut] {

	return func(yield func(FullTxOut) bool) {
		for out := range Resolve(graph, oracle, tip, params).FilterUnspents(outpoints) {
			if !yield(out) {
				return
			}
		}
	}
}

// Balance splits unspent value by spendability.
type Balance struct {
	Immature         btcutil.Amount
	TrustedPending   btcutil.Amount
	UntrustedPending btcutil.Amount
	Confirmed        btcutil.Amount
}

// TrustedSpendable is confirmed value plus trusted mempool value.
func (b Balance) TrustedSpendable() btcutil.Amount {
	return b.Confirmed + b.TrustedPending
}

// Total sums every bucket.
func (b Balance) Total() btcutil.Amount {
	return b.Confirmed + b.TrustedPending + b.UntrustedPending + b.Immature
}

// Balance sums the unspent outputs among outpoints. Mempool outputs count as
// trusted when trust accepts their key.
func (v *View) Balance(outpoints map[wire.OutPoint]spkindex.KeyID, trust func(spkindex.KeyID) bool) Balance {
	var balance Balance
	for out := range v.FilterUnspents(outpoints) {
		value := btcutil.Amount(out.TxOut.Value)
		switch {
		case out.Position.IsConfirmed():
			if out.IsMature(v.tip.Height) {
				balance.Confirmed += value
			} else {
				balance.Immature += value
			}
		case trust != nil && trust(out.KeyID):
			balance.TrustedPending += value
		default:
			balance.UntrustedPending += value
		}
	}
	return balance
}

func sortedOutPoints(outpoints map[wire.OutPoint]spkindex.KeyID) []wire.OutPoint {
	sorted := slices.Collect(maps.Keys(outpoints))
	slices.SortFunc(sorted, compareOutPoints)
	return sorted
}

func compareOutPoints(a, b wire.OutPoint) int {
	if c := model.CompareHashes(a.Hash, b.Hash); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}
