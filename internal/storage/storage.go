// Package storage persists snapshot history and publishes the status
// record. Snapshot artifacts are plain newline-delimited text named with a
// sortable timestamp, one directory per category; sortable-by-name equals
// sortable-by-time.
package storage

import (
	"time"

	"github.com/yairfalse/vigil/pkg/types"
)

// Store is the persistence surface the engine depends on. Persisted state
// is confined behind this interface rather than ambient globals.
type Store interface {
	// Append writes a new snapshot artifact for its category. Snapshots are
	// append-only and never mutated.
	Append(snapshot *types.Snapshot) error

	// Latest returns up to n snapshots for a category, newest first. Short
	// history returns fewer than n.
	Latest(category types.Category, n int) ([]*types.Snapshot, error)

	// Prune deletes snapshot artifacts older than the retention window.
	// Individual deletion failures are reported but never abort the sweep.
	Prune(olderThan time.Duration, now time.Time) (deleted int, errs []error)
}

// Publisher atomically replaces the published status record. A consumer
// must never observe a partially written record.
type Publisher interface {
	Publish(record *types.StatusRecord) error
}
