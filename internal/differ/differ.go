// Package differ compares consecutive snapshots of one category. The
// comparison is set-based, never positional: tools reordering their output
// between runs must not produce false positives.
package differ

import (
	"github.com/yairfalse/vigil/pkg/types"
)

// Differ computes symmetric differences between snapshots.
type Differ struct{}

// New creates a differ.
func New() *Differ {
	return &Differ{}
}

// Diff compares the newer snapshot against the older one. A nil older
// snapshot means no baseline exists yet: the result carries
// BaselineAvailable=false, the newer snapshot is ground truth, and no alert
// may be derived from it. A failed capture on either side suppresses the
// result so an empty snapshot never reads as "everything removed".
func (d *Differ) Diff(newer, older *types.Snapshot) *types.DiffResult {
	result := &types.DiffResult{Category: newer.Category}

	if older == nil {
		return result
	}
	result.BaselineAvailable = true

	if newer.CollectionFailed || older.CollectionFailed {
		result.Suppressed = true
		return result
	}

	newSet := newer.EntrySet()
	oldSet := older.EntrySet()

	for entry := range newSet {
		if _, ok := oldSet[entry]; !ok {
			result.Added = append(result.Added, entry)
		}
	}
	for entry := range oldSet {
		if _, ok := newSet[entry]; !ok {
			result.Removed = append(result.Removed, entry)
		}
	}

	result.Added = types.SortedCopy(result.Added)
	result.Removed = types.SortedCopy(result.Removed)
	return result
}

// DiffLatest applies Diff to a newest-first history slice as returned by
// the store's Latest.
func (d *Differ) DiffLatest(history []*types.Snapshot) *types.DiffResult {
	if len(history) == 0 {
		return nil
	}
	if len(history) == 1 {
		return d.Diff(history[0], nil)
	}
	return d.Diff(history[0], history[1])
}
