// Package localchain keeps the locally accepted best chain as a linked list of
// checkpoints and applies reorg-aware updates to it.
package localchain

import (
	"errors"
	"fmt"
	"iter"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
)

var (
	// ErrEmptyCheckPoints is returned when building a checkpoint from no blocks.
	ErrEmptyCheckPoints = errors.New("no blocks to build checkpoint from")
	// ErrHeightNotIncreasing is returned when pushing a block that is not above the tip.
	ErrHeightNotIncreasing = errors.New("checkpoint height must increase")
)

// CheckPoint is an immutable node pointing at the checkpoint below it.
// Checkpoints are shared freely between chains and never mutated.
type CheckPoint struct {
	block model.BlockID
	prev  *CheckPoint
}

// New creates a checkpoint with no ancestors.
func New(block model.BlockID) *CheckPoint {
	return &CheckPoint{block: block}
}

// FromBlockIDs builds a checkpoint chain from blocks ordered oldest to newest
// and returns its tip.
func FromBlockIDs(blocks []model.BlockID) (*CheckPoint, error) {
	if len(blocks) == 0 {
		return nil, ErrEmptyCheckPoints
	}
	return New(blocks[0]).Extend(blocks[1:]...)
}

// Height returns the checkpoint height.
func (cp *CheckPoint) Height() uint32 {
	return cp.block.Height
}

// Hash returns the checkpoint block hash.
func (cp *CheckPoint) Hash() chainhash.Hash {
	return cp.block.Hash
}

// BlockID returns the checkpoint block identifier.
func (cp *CheckPoint) BlockID() model.BlockID {
	return cp.block
}

// Prev returns the checkpoint below, or nil at the bottom of the chain.
func (cp *CheckPoint) Prev() *CheckPoint {
	return cp.prev
}

// Push returns a new tip on top of cp.
func (cp *CheckPoint) Push(block model.BlockID) (*CheckPoint, error) {
	if block.Height <= cp.block.Height {
		return nil, fmt.Errorf("push %s onto %s: %w", block, cp.block, ErrHeightNotIncreasing)
	}
	return &CheckPoint{block: block, prev: cp}, nil
}

// Extend pushes blocks in order and returns the new tip.
func (cp *CheckPoint) Extend(blocks ...model.BlockID) (*CheckPoint, error) {
	tip := cp
	for _, block := range blocks {
		next, err := tip.Push(block)
		if err != nil {
			return nil, err
		}
		tip = next
	}
	return tip, nil
}

// Iter walks from cp down to the bottom of the chain.
func (cp *CheckPoint) Iter() iter.Seq[*CheckPoint] {
	return func(yield func(*CheckPoint) bool) {
		for c := cp; c != nil; c = c.prev {
			if !yield(c) {
				return
			}
		}
	}
}

// Get returns the checkpoint at height, or nil if the chain has none there.
func (cp *CheckPoint) Get(height uint32) *CheckPoint {
	for c := range cp.Iter() {
		if c.block.Height == height {
			return c
		}
		if c.block.Height < height {
			return nil
		}
	}
	return nil
}

// BlockIDs lists the chain oldest to newest.
func (cp *CheckPoint) BlockIDs() []model.BlockID {
	var blocks []model.BlockID
	for c := range cp.Iter() {
		blocks = append(blocks, c.block)
	}
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	return blocks
}
