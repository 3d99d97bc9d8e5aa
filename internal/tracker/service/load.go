package service

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"go.uber.org/zap"
)

// LoadTracker rebuilds the network's tracker from every stored changeset, or
// creates a fresh one when nothing is stored. The secrets are added and
// stored transactions are reindexed against them. It also returns the seq of
// the next changeset to write.
func LoadTracker(
	ctx context.Context,
	store ChangeSetStore,
	network model.Network,
	secrets [][]byte,
	logger *zap.Logger,
	opts ...tracker.Option,
) (*tracker.Tracker, uint64, error) {
	stored, err := store.LoadChangeSets(ctx, network)
	if err != nil {
		return nil, 0, fmt.Errorf("load changesets: %w", err)
	}

	var (
		t       *tracker.Tracker
		nextSeq uint64
	)
	if len(stored) == 0 {
		t, err = tracker.NewForNetwork(network, opts...)
		if err != nil {
			return nil, 0, err
		}
		logger.Info("starting new tracker", zap.String("network", string(network)))
	} else {
		var merged tracker.ChangeSet
		for _, row := range stored {
			changeset, err := tracker.DecodeChangeSet(row.Payload)
			if err != nil {
				return nil, 0, fmt.Errorf("changeset %d: %w", row.Seq, err)
			}
			merged.Merge(changeset)
		}
		if got := merged.Network.UnwrapOr(network); got != network {
			return nil, 0, fmt.Errorf("stored changesets belong to %s, not %s", got, network)
		}
		t, err = tracker.FromChangeSet(merged, opts...)
		if err != nil {
			return nil, 0, err
		}
		nextSeq = stored[len(stored)-1].Seq + 1
		logger.Info("restored tracker",
			zap.String("network", string(network)),
			zap.Int("changesets", len(stored)),
			zap.Stringer("tip", t.Tip().BlockID()))
	}

	for _, secret := range secrets {
		if _, err := t.AddSecret(secret); err != nil {
			return nil, 0, err
		}
	}
	if t.Reindex() {
		logger.Info("reindex found outputs of the configured secrets")
	}
	return t, nextSeq, nil
}
