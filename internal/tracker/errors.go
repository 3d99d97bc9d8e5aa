package tracker

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/wire"
)

var (
	// ErrMissingNetwork is returned when restoring from a changeset without a network tag.
	ErrMissingNetwork = errors.New("changeset has no network")
	// ErrKeyDerivation is returned when a secret cannot be turned into a script.
	ErrKeyDerivation = errors.New("derive script from secret")
	// ErrRelevanceNotRestored is returned while restored outputs still wait for their scripts.
	ErrRelevanceNotRestored = errors.New("relevance index not restored")
	// ErrBlockMismatch is returned when a block event's checkpoint is not the block.
	ErrBlockMismatch = errors.New("block event checkpoint does not match block")
	// ErrInvalidChangeSet is returned when persisted bytes cannot be decoded.
	ErrInvalidChangeSet = errors.New("invalid changeset")
)

// RelevanceNotRestoredError lists what must be registered again after a
// restore. Add the secrets for MissingScripts and call Reindex.
type RelevanceNotRestoredError struct {
	MissingScripts [][]byte
	Outpoints      []wire.OutPoint
}

func (e *RelevanceNotRestoredError) Error() string {
	scripts := make([]string, 0, len(e.MissingScripts))
	for _, script := range e.MissingScripts {
		scripts = append(scripts, hex.EncodeToString(script))
	}
	return fmt.Sprintf("%d restored outputs wait for scripts [%s], add their secrets and reindex",
		len(e.Outpoints), strings.Join(scripts, ", "))
}

func (e *RelevanceNotRestoredError) Unwrap() error {
	return ErrRelevanceNotRestored
}
