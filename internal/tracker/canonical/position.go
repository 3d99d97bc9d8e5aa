// Package canonical decides which stored transactions belong to the current
// best chain or mempool view and derives output state from that choice.
package canonical

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// ChainPosition places a canonical transaction. Anchor is set for confirmed
// transactions; TransitivelyBy names the descendant whose confirmation implies
// this one when the transaction carries no anchor of its own in the chain.
type ChainPosition struct {
	Anchor         fn.Option[model.ConfirmationBlockTime]
	TransitivelyBy fn.Option[chainhash.Hash]
	LastSeen       fn.Option[uint64]
}

// IsConfirmed reports whether the position is in a block.
func (p ChainPosition) IsConfirmed() bool {
	return p.Anchor.IsSome()
}

// IsUnconfirmed reports whether the position is in the mempool.
func (p ChainPosition) IsUnconfirmed() bool {
	return p.Anchor.IsNone()
}

// Height returns the confirmation height.
func (p ChainPosition) Height() fn.Option[uint32] {
	return fn.MapOption(func(a model.ConfirmationBlockTime) uint32 {
		return a.Block.Height
	})(p.Anchor)
}

// CanonicalTx is a transaction chosen as canonical with its position.
type CanonicalTx struct {
	TxID     chainhash.Hash
	Tx       *wire.MsgTx
	Position ChainPosition
}

// ConflictPolicy chooses among unconfirmed transactions spending the same
// output.
type ConflictPolicy uint8

const (
	// LatestSeenWins keeps the transaction seen most recently, breaking ties
	// by ascending txid.
	LatestSeenWins ConflictPolicy = iota
)

func (p ConflictPolicy) String() string {
	switch p {
	case LatestSeenWins:
		return "latest_seen_wins"
	default:
		return "unknown"
	}
}

// Params tunes resolution. Transactions in AssumeCanonical are admitted right
// after confirmed ones, ahead of every mempool competitor.
type Params struct {
	AssumeCanonical []chainhash.Hash
	Policy          ConflictPolicy
}
