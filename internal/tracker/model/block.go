package model

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockID identifies a block by height and hash.
type BlockID struct {
	Height uint32
	Hash   chainhash.Hash
}

func (b BlockID) String() string {
	return fmt.Sprintf("%d:%s", b.Height, b.Hash)
}

// ConfirmationBlockTime anchors a transaction to the block that confirmed it.
type ConfirmationBlockTime struct {
	Block            BlockID
	ConfirmationTime uint64
}

// Less orders anchors by height, then hash, then confirmation time.
func (a ConfirmationBlockTime) Less(other ConfirmationBlockTime) bool {
	if a.Block.Height != other.Block.Height {
		return a.Block.Height < other.Block.Height
	}
	if c := bytes.Compare(a.Block.Hash[:], other.Block.Hash[:]); c != 0 {
		return c < 0
	}
	return a.ConfirmationTime < other.ConfirmationTime
}

// ChainOracle answers whether a block belongs to the chain ending at chainTip.
// Unknown tips and blocks above the tip report false.
type ChainOracle interface {
	IsBlockInChain(block, chainTip BlockID) bool
}

// CompareHashes orders hashes bytewise.
func CompareHashes(a, b chainhash.Hash) int {
	return bytes.Compare(a[:], b[:])
}
