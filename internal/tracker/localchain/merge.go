package localchain

import "fmt"

// mergeChains walks original and update from their tips downwards and works
// out the changeset that turns original into the merged chain.
//
// Update blocks above or between original blocks are additions. A hash
// mismatch at a shared height replaces the original block and invalidates every
// original block seen above it since the last replacement. The first matching
// block is the point of agreement; it must be unambiguous, so the original
// block directly above it has to be invalidated whenever both chains carry
// blocks above the agreement.
//
// When the update carries every original height, the merged chain is the
// update itself and it is returned as tip. Otherwise tip is nil and the
// changeset has to be applied to original.
func mergeChains(original, update *CheckPoint) (changeset ChangeSet, tip *CheckPoint, err error) {
	orig, upd := original, update
	var (
		prevOrig, prevUpd      *CheckPoint
		agreement              bool
		prevOrigInvalidated    bool
		potentiallyInvalidated []uint32
		superset               = true
	)

	for upd != nil {
		if orig == nil {
			changeset.insert(upd.Height(), upd.Hash())
			prevUpd, upd = upd, upd.Prev()
			continue
		}

		switch {
		case upd.Height() > orig.Height():
			changeset.insert(upd.Height(), upd.Hash())
			prevUpd, upd = upd, upd.Prev()

		case orig.Height() > upd.Height():
			superset = false
			potentiallyInvalidated = append(potentiallyInvalidated, orig.Height())
			prevOrigInvalidated = false
			prevOrig, orig = orig, orig.Prev()

		case orig.Hash() == upd.Hash():
			if !agreement && !prevOrigInvalidated && prevOrig != nil && prevUpd != nil {
				return ChangeSet{}, nil, &CannotConnectError{TryIncludeHeight: prevOrig.Height()}
			}
			agreement = true
			prevOrigInvalidated = false
			potentiallyInvalidated = potentiallyInvalidated[:0]
			if orig == upd {
				// shared history from here down
				return changeset, supersetTip(superset, update), nil
			}
			prevOrig, orig = orig, orig.Prev()
			prevUpd, upd = upd, upd.Prev()

		default:
			if orig.Height() == 0 {
				return ChangeSet{}, nil, fmt.Errorf("update replaces genesis %s with %s: %w",
					orig.Hash(), upd.Hash(), ErrChainConflict)
			}
			if agreement {
				return ChangeSet{}, nil, fmt.Errorf("update disagrees at height %d below its point of agreement: %w",
					orig.Height(), ErrChainConflict)
			}
			changeset.insert(upd.Height(), upd.Hash())
			for _, height := range potentiallyInvalidated {
				changeset.invalidate(height)
			}
			potentiallyInvalidated = potentiallyInvalidated[:0]
			prevOrigInvalidated = true
			prevOrig, orig = orig, orig.Prev()
			prevUpd, upd = upd, upd.Prev()
		}
	}

	if !agreement {
		tryInclude := uint32(0)
		if orig != nil {
			tryInclude = orig.Height()
		} else if prevOrig != nil {
			tryInclude = prevOrig.Height()
		}
		return ChangeSet{}, nil, &CannotConnectError{TryIncludeHeight: tryInclude}
	}
	return changeset, supersetTip(superset && orig == nil, update), nil
}

func supersetTip(superset bool, update *CheckPoint) *CheckPoint {
	if !superset {
		return nil
	}
	return update
}
