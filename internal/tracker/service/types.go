package service

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/localchain"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/repository/clickhouse"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Emitter interface {
		NextBlock(ctx context.Context) (*tracker.BlockEvent, error)
		Mempool(ctx context.Context, expected []*wire.MsgTx) (tracker.MempoolEvent, error)
		Reset(last *localchain.CheckPoint)
	}

	ChangeSetStore interface {
		AppendChangeSet(ctx context.Context, network model.Network, seq uint64, payload []byte) error
		LoadChangeSets(ctx context.Context, network model.Network) ([]clickhouse.StoredChangeSet, error)
	}

	TrackerMetrics interface {
		ObserveBlock(err error, tipHeight uint32, started time.Time)
		ObserveMempool(err error, seen, evicted int, started time.Time)
		ObservePersist(err error, size int)
	}
)
