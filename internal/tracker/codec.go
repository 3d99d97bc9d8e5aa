package tracker

import (
	"bytes"
	"cmp"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/localchain"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/spkindex"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/txgraph"
	jsoniter "github.com/json-iterator/go"
	"github.com/lightningnetwork/lnd/fn/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type changeSetDTO struct {
	IndexedGraph indexedGraphDTO `json:"indexed_graph"`
	LocalChain   localChainDTO   `json:"local_chain"`
	Network      *string         `json:"network"`
}

type indexedGraphDTO struct {
	TxGraph txGraphDTO `json:"tx_graph"`
	Indexer indexerDTO `json:"indexer"`
}

type txGraphDTO struct {
	Txs         []string       `json:"txs"`
	TxOuts      []txOutDTO     `json:"txouts"`
	Anchors     []anchorDTO    `json:"anchors"`
	LastSeen    []timestampDTO `json:"last_seen"`
	LastEvicted []timestampDTO `json:"last_evicted"`
}

type txOutDTO struct {
	OutPoint string `json:"outpoint"`
	Value    int64  `json:"value"`
	Script   string `json:"script_pubkey"`
}

type anchorDTO struct {
	TxID             string `json:"txid"`
	Height           uint32 `json:"height"`
	BlockHash        string `json:"block_hash"`
	ConfirmationTime uint64 `json:"confirmation_time"`
}

type timestampDTO struct {
	TxID string `json:"txid"`
	Time uint64 `json:"time"`
}

type indexerDTO struct {
	Outpoints []string `json:"outpoints"`
}

type localChainDTO struct {
	Blocks []blockDTO `json:"blocks"`
}

type blockDTO struct {
	Height uint32  `json:"height"`
	Hash   *string `json:"hash"`
}

// Encode serializes the changeset. Transactions are stored in their wire
// encoding, so decoding returns byte-identical transactions.
func (c ChangeSet) Encode() ([]byte, error) {
	dto := changeSetDTO{
		IndexedGraph: indexedGraphDTO{
			Indexer: indexerDTO{Outpoints: encodeOutPoints(c.IndexedGraph.Indexer)},
		},
		LocalChain: encodeLocalChain(c.LocalChain),
	}
	c.Network.WhenSome(func(n model.Network) {
		name := string(n)
		dto.Network = &name
	})

	graph, err := encodeTxGraph(c.IndexedGraph.Graph)
	if err != nil {
		return nil, err
	}
	dto.IndexedGraph.TxGraph = graph

	return json.Marshal(dto)
}

// DecodeChangeSet parses bytes produced by Encode.
func DecodeChangeSet(data []byte) (ChangeSet, error) {
	var dto changeSetDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return ChangeSet{}, fmt.Errorf("%w: %w", ErrInvalidChangeSet, err)
	}

	var changeset ChangeSet
	if dto.Network != nil {
		changeset.Network = fn.Some(model.Network(*dto.Network))
	}

	chain, err := decodeLocalChain(dto.LocalChain)
	if err != nil {
		return ChangeSet{}, fmt.Errorf("%w: local chain: %w", ErrInvalidChangeSet, err)
	}
	changeset.LocalChain = chain

	graph, err := decodeTxGraph(dto.IndexedGraph.TxGraph)
	if err != nil {
		return ChangeSet{}, fmt.Errorf("%w: tx graph: %w", ErrInvalidChangeSet, err)
	}
	changeset.IndexedGraph.Graph = graph

	for _, s := range dto.IndexedGraph.Indexer.Outpoints {
		op, err := parseOutPoint(s)
		if err != nil {
			return ChangeSet{}, fmt.Errorf("%w: indexer: %w", ErrInvalidChangeSet, err)
		}
		changeset.IndexedGraph.Indexer.Merge(spkindex.ChangeSet{Outpoints: map[wire.OutPoint]struct{}{op: {}}})
	}

	return changeset, nil
}

func encodeLocalChain(changeset localchain.ChangeSet) localChainDTO {
	var dto localChainDTO
	for height, hash := range changeset.Blocks {
		block := blockDTO{Height: height}
		if hash != nil {
			s := hash.String()
			block.Hash = &s
		}
		dto.Blocks = append(dto.Blocks, block)
	}
	slices.SortFunc(dto.Blocks, func(a, b blockDTO) int {
		return cmp.Compare(a.Height, b.Height)
	})
	return dto
}

func decodeLocalChain(dto localChainDTO) (localchain.ChangeSet, error) {
	var changeset localchain.ChangeSet
	for _, block := range dto.Blocks {
		blocks := map[uint32]*chainhash.Hash{block.Height: nil}
		if block.Hash != nil {
			hash, err := chainhash.NewHashFromStr(*block.Hash)
			if err != nil {
				return localchain.ChangeSet{}, fmt.Errorf("block %d: %w", block.Height, err)
			}
			blocks[block.Height] = hash
		}
		changeset.Merge(localchain.ChangeSet{Blocks: blocks})
	}
	return changeset, nil
}

func encodeTxGraph(changeset txgraph.ChangeSet) (txGraphDTO, error) {
	var dto txGraphDTO

	txids := make([]chainhash.Hash, 0, len(changeset.Txs))
	for txid := range changeset.Txs {
		txids = append(txids, txid)
	}
	slices.SortFunc(txids, model.CompareHashes)
	for _, txid := range txids {
		var buf bytes.Buffer
		if err := changeset.Txs[txid].Serialize(&buf); err != nil {
			return txGraphDTO{}, fmt.Errorf("serialize tx %s: %w", txid, err)
		}
		dto.Txs = append(dto.Txs, hex.EncodeToString(buf.Bytes()))
	}

	for op, out := range changeset.TxOuts {
		dto.TxOuts = append(dto.TxOuts, txOutDTO{
			OutPoint: op.String(),
			Value:    out.Value,
			Script:   hex.EncodeToString(out.PkScript),
		})
	}
	slices.SortFunc(dto.TxOuts, func(a, b txOutDTO) int {
		return strings.Compare(a.OutPoint, b.OutPoint)
	})

	for anchor := range changeset.Anchors {
		dto.Anchors = append(dto.Anchors, anchorDTO{
			TxID:             anchor.TxID.String(),
			Height:           anchor.Anchor.Block.Height,
			BlockHash:        anchor.Anchor.Block.Hash.String(),
			ConfirmationTime: anchor.Anchor.ConfirmationTime,
		})
	}
	slices.SortFunc(dto.Anchors, func(a, b anchorDTO) int {
		if c := strings.Compare(a.TxID, b.TxID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Height, b.Height); c != 0 {
			return c
		}
		if c := strings.Compare(a.BlockHash, b.BlockHash); c != 0 {
			return c
		}
		return cmp.Compare(a.ConfirmationTime, b.ConfirmationTime)
	})

	dto.LastSeen = encodeTimestamps(changeset.LastSeen)
	dto.LastEvicted = encodeTimestamps(changeset.LastEvicted)
	return dto, nil
}

func decodeTxGraph(dto txGraphDTO) (txgraph.ChangeSet, error) {
	var changeset txgraph.ChangeSet

	for i, s := range dto.Txs {
		raw, err := hex.DecodeString(s)
		if err != nil {
			return txgraph.ChangeSet{}, fmt.Errorf("tx %d: %w", i, err)
		}
		tx := new(wire.MsgTx)
		if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
			return txgraph.ChangeSet{}, fmt.Errorf("tx %d: %w", i, err)
		}
		if changeset.Txs == nil {
			changeset.Txs = make(map[chainhash.Hash]*wire.MsgTx, len(dto.Txs))
		}
		changeset.Txs[tx.TxHash()] = tx
	}

	for _, out := range dto.TxOuts {
		op, err := parseOutPoint(out.OutPoint)
		if err != nil {
			return txgraph.ChangeSet{}, err
		}
		script, err := hex.DecodeString(out.Script)
		if err != nil {
			return txgraph.ChangeSet{}, fmt.Errorf("txout %s: %w", out.OutPoint, err)
		}
		if changeset.TxOuts == nil {
			changeset.TxOuts = make(map[wire.OutPoint]*wire.TxOut, len(dto.TxOuts))
		}
		changeset.TxOuts[op] = wire.NewTxOut(out.Value, script)
	}

	for _, a := range dto.Anchors {
		txid, err := chainhash.NewHashFromStr(a.TxID)
		if err != nil {
			return txgraph.ChangeSet{}, fmt.Errorf("anchor txid: %w", err)
		}
		blockHash, err := chainhash.NewHashFromStr(a.BlockHash)
		if err != nil {
			return txgraph.ChangeSet{}, fmt.Errorf("anchor block: %w", err)
		}
		if changeset.Anchors == nil {
			changeset.Anchors = make(map[txgraph.TxAnchor]struct{}, len(dto.Anchors))
		}
		changeset.Anchors[txgraph.TxAnchor{
			TxID: *txid,
			Anchor: model.ConfirmationBlockTime{
				Block:            model.BlockID{Height: a.Height, Hash: *blockHash},
				ConfirmationTime: a.ConfirmationTime,
			},
		}] = struct{}{}
	}

	var err error
	if changeset.LastSeen, err = decodeTimestamps(dto.LastSeen); err != nil {
		return txgraph.ChangeSet{}, fmt.Errorf("last seen: %w", err)
	}
	if changeset.LastEvicted, err = decodeTimestamps(dto.LastEvicted); err != nil {
		return txgraph.ChangeSet{}, fmt.Errorf("last evicted: %w", err)
	}
	return changeset, nil
}

func encodeTimestamps(times map[chainhash.Hash]uint64) []timestampDTO {
	var dto []timestampDTO
	for txid, t := range times {
		dto = append(dto, timestampDTO{TxID: txid.String(), Time: t})
	}
	slices.SortFunc(dto, func(a, b timestampDTO) int {
		return strings.Compare(a.TxID, b.TxID)
	})
	return dto
}

func decodeTimestamps(dto []timestampDTO) (map[chainhash.Hash]uint64, error) {
	if len(dto) == 0 {
		return nil, nil
	}
	times := make(map[chainhash.Hash]uint64, len(dto))
	for _, ts := range dto {
		txid, err := chainhash.NewHashFromStr(ts.TxID)
		if err != nil {
			return nil, err
		}
		if existing, ok := times[*txid]; !ok || ts.Time > existing {
			times[*txid] = ts.Time
		}
	}
	return times, nil
}

func encodeOutPoints(changeset spkindex.ChangeSet) []string {
	outpoints := make([]string, 0, len(changeset.Outpoints))
	for op := range changeset.Outpoints {
		outpoints = append(outpoints, op.String())
	}
	slices.Sort(outpoints)
	return outpoints
}

func parseOutPoint(s string) (wire.OutPoint, error) {
	txid, vout, ok := strings.Cut(s, ":")
	if !ok {
		return wire.OutPoint{}, fmt.Errorf("outpoint %q: missing index", s)
	}
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return wire.OutPoint{}, fmt.Errorf("outpoint %q: %w", s, err)
	}
	index, err := strconv.ParseUint(vout, 10, 32)
	if err != nil {
		return wire.OutPoint{}, fmt.Errorf("outpoint %q: %w", s, err)
	}
	return wire.OutPoint{Hash: *hash, Index: uint32(index)}, nil
}
