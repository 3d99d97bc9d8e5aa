package localchain

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// ChangeSet records block changes by height. A nil hash marks the height as
// invalidated by a reorg.
type ChangeSet struct {
	Blocks map[uint32]*chainhash.Hash
}

// Merge applies other on top of c; later entries win per height.
func (c *ChangeSet) Merge(other ChangeSet) {
	if len(other.Blocks) == 0 {
		return
	}
	if c.Blocks == nil {
		c.Blocks = make(map[uint32]*chainhash.Hash, len(other.Blocks))
	}
	for height, hash := range other.Blocks {
		c.Blocks[height] = copyHash(hash)
	}
}

// IsEmpty reports whether the changeset holds no block changes.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Blocks) == 0
}

func (c *ChangeSet) insert(height uint32, hash chainhash.Hash) {
	if c.Blocks == nil {
		c.Blocks = make(map[uint32]*chainhash.Hash)
	}
	c.Blocks[height] = &hash
}

func (c *ChangeSet) invalidate(height uint32) {
	if c.Blocks == nil {
		c.Blocks = make(map[uint32]*chainhash.Hash)
	}
	c.Blocks[height] = nil
}

func copyHash(hash *chainhash.Hash) *chainhash.Hash {
	if hash == nil {
		return nil
	}
	h := *hash
	return &h
}
