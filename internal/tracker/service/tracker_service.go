// Package service drives a tracker from a node and persists its changes.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/canonical"
	"github.com/goodnatureofminers/blockinsight7000-spktracker/internal/tracker/model"
	"go.uber.org/zap"
)

const (
	sleepDuration = 5 * time.Second
	pollInterval  = 10 * time.Second
	blocksPerRun  = 100
)

// TrackerService owns a tracker. Run is the only writer; the read methods may
// be called from any goroutine.
type TrackerService struct {
	mu      sync.RWMutex
	tracker *tracker.Tracker

	logger        *zap.Logger
	network       model.Network
	emitter       Emitter
	store         ChangeSetStore
	metrics       TrackerMetrics
	sleep         func(context.Context, time.Duration) error
	sleepDuration time.Duration
	pollInterval  time.Duration
	blocksPerRun  int
	blockSignal   <-chan struct{}

	// staged changes not yet written, and the seq they will be written under
	pending tracker.ChangeSet
	nextSeq uint64
}

// Option configures a TrackerService.
type Option func(*TrackerService)

// WithPollInterval sets the pause between two passes once caught up.
func WithPollInterval(d time.Duration) Option {
	return func(s *TrackerService) {
		s.pollInterval = d
	}
}

// WithBlockSignal wakes the service early whenever the channel fires.
func WithBlockSignal(signal <-chan struct{}) Option {
	return func(s *TrackerService) {
		s.blockSignal = signal
	}
}

// NewTrackerService builds a TrackerService. nextSeq is the sequence number
// of the next persisted changeset, as returned by LoadTracker.
func NewTrackerService(
	t *tracker.Tracker,
	nextSeq uint64,
	emitter Emitter,
	store ChangeSetStore,
	metrics TrackerMetrics,
	logger *zap.Logger,
	opts ...Option,
) (*TrackerService, error) {
	if t == nil {
		return nil, errors.New("tracker is required")
	}
	if metrics == nil {
		return nil, errors.New("tracker metrics is required")
	}
	s := &TrackerService{
		tracker:       t,
		logger:        logger.With(zap.String("network", string(t.Network()))),
		network:       t.Network(),
		emitter:       emitter,
		store:         store,
		metrics:       metrics,
		sleepDuration: sleepDuration,
		pollInterval:  pollInterval,
		blocksPerRun:  blocksPerRun,
		nextSeq:       nextSeq,
	}
	s.sleep = func(ctx context.Context, d time.Duration) error {
		return clock.Wait(ctx, d, s.blockSignal)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run follows the node until the context is canceled.
func (s *TrackerService) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.run(ctx); err != nil {
			if errors.Is(err, tracker.ErrRelevanceNotRestored) {
				s.logger.Error("tracker cannot process events until its secrets are configured", zap.Error(err))
			} else {
				s.logger.Warn("run iteration failed, backing off", zap.Error(err), zap.Duration("sleep", s.sleepDuration))
			}
			if sleepErr := s.sleep(ctx, s.sleepDuration); sleepErr != nil {
				return sleepErr
			}
		}
	}
}

// run applies blocks until caught up, then the mempool, then waits. It
// returns early without waiting when more blocks remain.
func (s *TrackerService) run(ctx context.Context) error {
	caughtUp, err := s.syncBlocks(ctx)
	if err != nil {
		return err
	}
	if !caughtUp {
		return nil
	}
	if err := s.syncMempool(ctx); err != nil {
		return err
	}
	return s.sleep(ctx, s.pollInterval)
}

func (s *TrackerService) syncBlocks(ctx context.Context) (bool, error) {
	for range s.blocksPerRun {
		started := time.Now()
		event, err := s.emitter.NextBlock(ctx)
		if err != nil {
			s.metrics.ObserveBlock(err, 0, started)
			return false, fmt.Errorf("next block: %w", err)
		}
		if event == nil {
			return true, s.persist(ctx)
		}

		err = s.mutate(func(t *tracker.Tracker) error {
			return t.ConsumeBlockEvent(*event)
		})
		if err != nil {
			s.metrics.ObserveBlock(err, 0, started)
			s.mu.RLock()
			s.emitter.Reset(s.tracker.Tip())
			s.mu.RUnlock()
			return false, errors.Join(err, s.persist(ctx))
		}
		s.metrics.ObserveBlock(nil, event.Height(), started)
		s.logger.Debug("applied block", zap.Stringer("block", event.Checkpoint.BlockID()))

		if err := s.persist(ctx); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (s *TrackerService) syncMempool(ctx context.Context) error {
	started := time.Now()

	s.mu.RLock()
	expected := slices.Collect(s.tracker.ExpectedMempoolTxs())
	s.mu.RUnlock()

	event, err := s.emitter.Mempool(ctx, expected)
	if err != nil {
		s.metrics.ObserveMempool(err, 0, 0, started)
		return fmt.Errorf("read mempool: %w", err)
	}
	err = s.mutate(func(t *tracker.Tracker) error {
		return t.ConsumeMempoolEvent(event)
	})
	s.metrics.ObserveMempool(err, len(event.Update), len(event.Evicted), started)
	if err != nil {
		return errors.Join(err, s.persist(ctx))
	}
	return s.persist(ctx)
}

// mutate runs fn under the write lock and moves whatever it staged into the
// pending changeset, whether fn failed or not.
func (s *TrackerService) mutate(fn func(*tracker.Tracker) error) error {
	s.mu.Lock()
	err := fn(s.tracker)
	stage := s.tracker.TakeStage()
	s.mu.Unlock()

	s.pending.Merge(stage)
	return err
}

// persist writes the pending changeset. On failure it stays pending and is
// merged with later changes, so the next write carries all of them.
func (s *TrackerService) persist(ctx context.Context) error {
	if s.pending.IsEmpty() {
		return nil
	}
	payload, err := s.pending.Encode()
	if err != nil {
		s.metrics.ObservePersist(err, 0)
		return fmt.Errorf("encode changeset: %w", err)
	}
	err = s.store.AppendChangeSet(ctx, s.network, s.nextSeq, payload)
	s.metrics.ObservePersist(err, len(payload))
	if err != nil {
		return fmt.Errorf("persist changeset %d: %w", s.nextSeq, err)
	}
	s.nextSeq++
	s.pending = tracker.ChangeSet{}
	return nil
}

// Network returns the network the tracker follows.
func (s *TrackerService) Network() model.Network {
	return s.network
}

// Tip returns the tracker chain tip.
func (s *TrackerService) Tip() model.BlockID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Tip().BlockID()
}

// UTXO is an unspent watched output and the script it pays.
type UTXO struct {
	Script []byte
	canonical.FullTxOut
}

// UTXOs returns the canonical unspent watched outputs.
func (s *TrackerService) UTXOs() []UTXO {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var utxos []UTXO
	for script, out := range s.tracker.UTXOs() {
		utxos = append(utxos, UTXO{Script: script, FullTxOut: out})
	}
	return utxos
}

// MempoolTx is a canonical unconfirmed transaction with the watched value it
// spends and receives.
type MempoolTx struct {
	Tx       *wire.MsgTx
	Sent     btcutil.Amount
	Received btcutil.Amount
}

// MempoolTxs returns the canonical unconfirmed transactions.
func (s *TrackerService) MempoolTxs() []MempoolTx {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []MempoolTx
	for tx := range s.tracker.ExpectedMempoolTxs() {
		sent, received := s.tracker.SentAndReceived(tx)
		txs = append(txs, MempoolTx{Tx: tx, Sent: sent, Received: received})
	}
	return txs
}

// Balance returns the balance of the watched outputs.
func (s *TrackerService) Balance() (model.BlockID, canonical.Balance) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Tip().BlockID(), s.tracker.Balance()
}
