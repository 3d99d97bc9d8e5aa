package transport

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

import (
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/canonical"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/service"
)

type (
	// TrackerReader is the read side of a running tracker service.
	TrackerReader interface {
		Network() model.Network
		Tip() model.BlockID
		UTXOs() []service.UTXO
		MempoolTxs() []service.MempoolTx
		Balance() (model.BlockID, canonical.Balance)
	}
)
