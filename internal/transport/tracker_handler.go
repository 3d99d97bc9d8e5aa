// Package transport exposes gRPC/HTTP handlers.
package transport

import (
	"bytes"
	"encoding/hex"
	"net/http"

	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/service"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type (
	blockResponse struct {
		Height uint32 `json:"height"`
		Hash   string `json:"hash"`
	}

	tipResponse struct {
		Network model.Network `json:"network"`
		blockResponse
	}

	confirmationResponse struct {
		blockResponse
		Time uint64 `json:"time"`
	}

	utxoResponse struct {
		OutPoint     string                `json:"outpoint"`
		Value        int64                 `json:"value"`
		Script       string                `json:"script"`
		KeyID        string                `json:"key_id"`
		Confirmation *confirmationResponse `json:"confirmation,omitempty"`
		LastSeen     *uint64               `json:"last_seen,omitempty"`
		IsOnCoinbase bool                  `json:"is_on_coinbase"`
	}

	mempoolTxResponse struct {
		TxID     string `json:"txid"`
		Raw      string `json:"raw"`
		Sent     int64  `json:"sent"`
		Received int64  `json:"received"`
	}

	balanceResponse struct {
		Tip              blockResponse `json:"tip"`
		Immature         int64         `json:"immature"`
		TrustedPending   int64         `json:"trusted_pending"`
		UntrustedPending int64         `json:"untrusted_pending"`
		Confirmed        int64         `json:"confirmed"`
		TrustedSpendable int64         `json:"trusted_spendable"`
		Total            int64         `json:"total"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

// TrackerHandler serves the tracker state as JSON.
type TrackerHandler struct {
	tracker TrackerReader
	logger  *zap.Logger
}

// NewTrackerHandler returns a TrackerHandler instance.
func NewTrackerHandler(tracker TrackerReader, logger *zap.Logger) *TrackerHandler {
	return &TrackerHandler{tracker: tracker, logger: logger}
}

// Register mounts the handler routes on mux.
func (h *TrackerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/tip", h.Tip)
	mux.HandleFunc("GET /v1/utxos", h.UTXOs)
	mux.HandleFunc("GET /v1/mempool", h.Mempool)
	mux.HandleFunc("GET /v1/balance", h.Balance)
}

// Tip returns the tracker chain tip.
func (h *TrackerHandler) Tip(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, tipResponse{
		Network:       h.tracker.Network(),
		blockResponse: toBlock(h.tracker.Tip()),
	})
}

// UTXOs returns the canonical unspent outputs of the watched scripts.
func (h *TrackerHandler) UTXOs(w http.ResponseWriter, _ *http.Request) {
	utxos := h.tracker.UTXOs()
	resp := make([]utxoResponse, 0, len(utxos))
	for _, utxo := range utxos {
		resp = append(resp, toUTXO(utxo))
	}
	h.write(w, http.StatusOK, resp)
}

// Mempool returns the canonical unconfirmed transactions with the watched
// value each one spends and receives.
func (h *TrackerHandler) Mempool(w http.ResponseWriter, _ *http.Request) {
	txs := h.tracker.MempoolTxs()
	resp := make([]mempoolTxResponse, 0, len(txs))
	for _, tx := range txs {
		raw, err := serializeTx(tx.Tx)
		if err != nil {
			h.logger.Error("serialize mempool tx", zap.Stringer("txid", tx.Tx.TxHash()), zap.Error(err))
			h.write(w, http.StatusInternalServerError, errorResponse{Error: "serialize transaction"})
			return
		}
		resp = append(resp, mempoolTxResponse{
			TxID:     tx.Tx.TxHash().String(),
			Raw:      raw,
			Sent:     int64(tx.Sent),
			Received: int64(tx.Received),
		})
	}
	h.write(w, http.StatusOK, resp)
}

// Balance returns the balance of the watched scripts at the tip.
func (h *TrackerHandler) Balance(w http.ResponseWriter, _ *http.Request) {
	tip, balance := h.tracker.Balance()
	h.write(w, http.StatusOK, balanceResponse{
		Tip:              toBlock(tip),
		Immature:         int64(balance.Immature),
		TrustedPending:   int64(balance.TrustedPending),
		UntrustedPending: int64(balance.UntrustedPending),
		Confirmed:        int64(balance.Confirmed),
		TrustedSpendable: int64(balance.TrustedSpendable()),
		Total:            int64(balance.Total()),
	})
}

func (h *TrackerHandler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
}

func toBlock(id model.BlockID) blockResponse {
	return blockResponse{Height: id.Height, Hash: id.Hash.String()}
}

func toUTXO(utxo service.UTXO) utxoResponse {
	resp := utxoResponse{
		OutPoint:     utxo.OutPoint.String(),
		Value:        utxo.TxOut.Value,
		Script:       hex.EncodeToString(utxo.Script),
		KeyID:        string(utxo.KeyID),
		IsOnCoinbase: utxo.IsOnCoinbase,
	}
	utxo.Position.Anchor.WhenSome(func(anchor model.ConfirmationBlockTime) {
		resp.Confirmation = &confirmationResponse{
			blockResponse: toBlock(anchor.Block),
			Time:          anchor.ConfirmationTime,
		}
	})
	utxo.Position.LastSeen.WhenSome(func(seen uint64) {
		resp.LastSeen = &seen
	})
	return resp
}

func serializeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

var _ TrackerReader = (*service.TrackerService)(nil)
