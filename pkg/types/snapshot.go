package types

import (
	"sort"
	"time"
)

// Category identifies one class of host facts captured per invocation.
type Category string

const (
	CategoryBinaries Category = "binaries"
	CategorySUID     Category = "suid"
	CategoryUsers    Category = "users"
	CategoryAuthKeys Category = "authkeys"
	CategoryPeers    Category = "peers"
)

// Categories returns every known category in collection order.
func Categories() []Category {
	return []Category{CategoryBinaries, CategorySUID, CategoryUsers, CategoryAuthKeys, CategoryPeers}
}

// SecuritySensitive reports whether drift in this category is treated as
// critical rather than warn.
func (c Category) SecuritySensitive() bool {
	switch c {
	case CategoryBinaries, CategoryUsers, CategoryAuthKeys:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// Snapshot is a point-in-time capture of one category of host facts.
// Entries preserve collection order but order is not significant for
// comparison; a snapshot is never mutated after creation.
type Snapshot struct {
	Category         Category  `json:"category"`
	CapturedAt       time.Time `json:"captured_at"`
	Entries          []string  `json:"entries"`
	CollectionFailed bool      `json:"collection_failed,omitempty"`
}

// NewSnapshot builds a snapshot, dropping duplicate entries while keeping
// first-seen order.
func NewSnapshot(category Category, capturedAt time.Time, entries []string) *Snapshot {
	seen := make(map[string]struct{}, len(entries))
	unique := make([]string, 0, len(entries))
	for _, e := range entries {
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		unique = append(unique, e)
	}
	return &Snapshot{Category: category, CapturedAt: capturedAt, Entries: unique}
}

// FailedSnapshot marks a capture whose collector could not run. It carries
// no entries and must never produce removal alerts when diffed.
func FailedSnapshot(category Category, capturedAt time.Time) *Snapshot {
	return &Snapshot{Category: category, CapturedAt: capturedAt, CollectionFailed: true}
}

// EntrySet returns the entries as a set for comparison.
func (s *Snapshot) EntrySet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Entries))
	for _, e := range s.Entries {
		set[e] = struct{}{}
	}
	return set
}

// DiffResult is the outcome of comparing the two newest snapshots of a
// category. When BaselineAvailable is false the newer snapshot is ground
// truth and no alert may be derived from it.
type DiffResult struct {
	Category          Category `json:"category"`
	Added             []string `json:"added"`
	Removed           []string `json:"removed"`
	BaselineAvailable bool     `json:"baseline_available"`
	Suppressed        bool     `json:"suppressed,omitempty"`
}

// HasChanges reports whether the diff carries any alertable drift.
func (d *DiffResult) HasChanges() bool {
	return d.BaselineAvailable && !d.Suppressed && (len(d.Added) > 0 || len(d.Removed) > 0)
}

// SortedCopy returns entries sorted for stable output.
func SortedCopy(entries []string) []string {
	out := make([]string, len(entries))
	copy(out, entries)
	sort.Strings(out)
	return out
}
