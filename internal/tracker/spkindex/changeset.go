package spkindex

import "github.com/btcsuite/btcd/wire"

// ChangeSet lists outpoints newly discovered as paying a watched script.
type ChangeSet struct {
	Outpoints map[wire.OutPoint]struct{}
}

// Merge adds other's outpoints to c.
func (c *ChangeSet) Merge(other ChangeSet) {
	for op := range other.Outpoints {
		c.add(op)
	}
}

// IsEmpty reports whether no outpoints are recorded.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Outpoints) == 0
}

func (c *ChangeSet) add(op wire.OutPoint) {
	if c.Outpoints == nil {
		c.Outpoints = make(map[wire.OutPoint]struct{})
	}
	c.Outpoints[op] = struct{}{}
}
