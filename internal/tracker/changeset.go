package tracker

import (
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/localchain"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/txgraph"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// ChangeSet is everything a tracker learned since the last TakeStage.
type ChangeSet struct {
	IndexedGraph txgraph.IndexedChangeSet
	LocalChain   localchain.ChangeSet
	Network      fn.Option[model.Network]
}

// Merge folds other into c. A network tag in other replaces the current one.
func (c *ChangeSet) Merge(other ChangeSet) {
	c.IndexedGraph.Merge(other.IndexedGraph)
	c.LocalChain.Merge(other.LocalChain)
	c.Network = other.Network.Alt(c.Network)
}

// IsEmpty reports whether no part carries pending data.
func (c ChangeSet) IsEmpty() bool {
	return c.IndexedGraph.IsEmpty() && c.LocalChain.IsEmpty() && c.Network.IsNone()
}

func fromGraph(changeset txgraph.IndexedChangeSet) ChangeSet {
	return ChangeSet{IndexedGraph: changeset}
}

func fromChain(changeset localchain.ChangeSet) ChangeSet {
	return ChangeSet{LocalChain: changeset}
}
