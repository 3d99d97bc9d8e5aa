package localchain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
)

var (
	// ErrChainConflict is returned when an update shares no usable common
	// ancestor with the local chain.
	ErrChainConflict = errors.New("chain update conflicts with local chain")
	// ErrMissingGenesis is returned when a changeset would leave the chain without height 0.
	ErrMissingGenesis = errors.New("local chain is missing genesis block")
)

// CannotConnectError reports an update that cannot be connected to the local
// chain. Including TryIncludeHeight in the update may resolve it.
type CannotConnectError struct {
	TryIncludeHeight uint32
}

func (e *CannotConnectError) Error() string {
	return fmt.Sprintf("cannot connect update to local chain, try include height %d", e.TryIncludeHeight)
}

func (e *CannotConnectError) Unwrap() error {
	return ErrChainConflict
}

// LocalChain is the locally accepted best chain. It always contains genesis.
type LocalChain struct {
	tip      *CheckPoint
	byHeight map[uint32]*CheckPoint
}

// FromGenesisHash creates a chain holding only the genesis block and returns
// the changeset that recreates it.
func FromGenesisHash(hash chainhash.Hash) (*LocalChain, ChangeSet) {
	chain := &LocalChain{}
	chain.setTip(New(model.BlockID{Height: 0, Hash: hash}), 0)
	return chain, chain.InitialChangeSet()
}

// FromChangeSet rebuilds a chain from a persisted changeset.
func FromChangeSet(changeset ChangeSet) (*LocalChain, error) {
	genesis, ok := changeset.Blocks[0]
	if !ok || genesis == nil {
		return nil, ErrMissingGenesis
	}
	chain, _ := FromGenesisHash(*genesis)
	if err := chain.ApplyChangeSet(changeset); err != nil {
		return nil, err
	}
	return chain, nil
}

// Tip returns the highest checkpoint.
func (c *LocalChain) Tip() *CheckPoint {
	return c.tip
}

// Genesis returns the genesis block hash.
func (c *LocalChain) Genesis() chainhash.Hash {
	return c.byHeight[0].Hash()
}

// Get returns the checkpoint at height, or nil.
func (c *LocalChain) Get(height uint32) *CheckPoint {
	return c.byHeight[height]
}

// Len returns the number of checkpoints in the chain.
func (c *LocalChain) Len() int {
	return len(c.byHeight)
}

// IsBlockInChain reports whether block is part of the chain that ends at
// chainTip. A chainTip the local chain does not contain yields false.
func (c *LocalChain) IsBlockInChain(block, chainTip model.BlockID) bool {
	if block.Height > chainTip.Height {
		return false
	}
	tip, ok := c.byHeight[chainTip.Height]
	if !ok || tip.Hash() != chainTip.Hash {
		return false
	}
	cp, ok := c.byHeight[block.Height]
	return ok && cp.Hash() == block.Hash
}

// InitialChangeSet returns a changeset that recreates the whole chain.
func (c *LocalChain) InitialChangeSet() ChangeSet {
	var changeset ChangeSet
	for cp := range c.tip.Iter() {
		changeset.insert(cp.Height(), cp.Hash())
	}
	return changeset
}

// ApplyUpdate merges update into the chain. The update must connect to the
// local chain through a common block; everything above that block is replaced
// by the update. Invalidated heights appear in the returned changeset with a
// nil hash. On error the chain is unchanged.
//
// An update that carries every local height becomes the chain as is, so
// later updates built on it share checkpoints with the chain.
func (c *LocalChain) ApplyUpdate(update *CheckPoint) (ChangeSet, error) {
	if update == nil {
		return ChangeSet{}, nil
	}
	changeset, tip, err := mergeChains(c.tip, update)
	if err != nil {
		return ChangeSet{}, err
	}
	if tip != nil {
		c.installTip(tip)
		return changeset, nil
	}
	if err := c.ApplyChangeSet(changeset); err != nil {
		return ChangeSet{}, err
	}
	return changeset, nil
}

// ApplyChangeSet applies block additions and invalidations.
func (c *LocalChain) ApplyChangeSet(changeset ChangeSet) error {
	if changeset.IsEmpty() {
		return nil
	}
	if genesis, ok := changeset.Blocks[0]; ok {
		if genesis == nil {
			return ErrMissingGenesis
		}
		if *genesis != c.Genesis() {
			return fmt.Errorf("genesis %s does not match %s: %w", genesis, c.Genesis(), ErrChainConflict)
		}
	}

	lowest := lowestHeight(changeset)
	blocks := make(map[uint32]chainhash.Hash)
	base := c.tip
	for base != nil && base.Height() >= lowest {
		blocks[base.Height()] = base.Hash()
		base = base.Prev()
	}
	for height, hash := range changeset.Blocks {
		if hash == nil {
			delete(blocks, height)
			continue
		}
		blocks[height] = *hash
	}

	heights := make([]uint32, 0, len(blocks))
	for height := range blocks {
		heights = append(heights, height)
	}
	slices.Sort(heights)

	if base == nil {
		if len(heights) == 0 || heights[0] != 0 {
			return ErrMissingGenesis
		}
		base = New(model.BlockID{Height: 0, Hash: blocks[0]})
		heights = heights[1:]
	}
	tip := base
	for _, height := range heights {
		next, err := tip.Push(model.BlockID{Height: height, Hash: blocks[height]})
		if err != nil {
			return err
		}
		tip = next
	}

	for height, hash := range changeset.Blocks {
		if hash == nil {
			delete(c.byHeight, height)
		}
	}
	c.setTip(tip, lowest)
	return nil
}

// setTip installs tip and reindexes every checkpoint at or above from.
func (c *LocalChain) setTip(tip *CheckPoint, from uint32) {
	if c.byHeight == nil {
		c.byHeight = make(map[uint32]*CheckPoint)
	}
	for cp := range tip.Iter() {
		if cp.Height() < from {
			break
		}
		c.byHeight[cp.Height()] = cp
	}
	c.tip = tip
}

// installTip makes tip the chain. Indexing stops at the first checkpoint
// already shared with the chain.
func (c *LocalChain) installTip(tip *CheckPoint) {
	for cp := range tip.Iter() {
		if c.byHeight[cp.Height()] == cp {
			break
		}
		c.byHeight[cp.Height()] = cp
	}
	c.tip = tip
}

func lowestHeight(changeset ChangeSet) uint32 {
	first := true
	var lowest uint32
	for height := range changeset.Blocks {
		if first || height < lowest {
			lowest = height
			first = false
		}
	}
	return lowest
}
