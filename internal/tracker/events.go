package tracker

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/localchain"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/txgraph"
)

// BlockEvent carries a block and the checkpoint placing it in the emitter's
// view of the best chain. Checkpoint must be the block itself and should
// reach back to a block the tracker already knows.
type BlockEvent struct {
	Block      *wire.MsgBlock
	Checkpoint *localchain.CheckPoint
}

// Height returns the block height.
func (e BlockEvent) Height() uint32 {
	return e.Checkpoint.Height()
}

// MempoolEvent carries new mempool transactions and the ones that left.
type MempoolEvent struct {
	Update  []txgraph.SeenTx
	Evicted []txgraph.EvictedTx
}
