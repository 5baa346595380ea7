package storage

import (
	"testing"
	"time"

	"github.com/yairfalse/vigil/pkg/types"
)

func TestLocalStore_AppendAndLatest(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := types.NewSnapshot(types.CategoryUsers, base, []string{"kali:1000"})
	second := types.NewSnapshot(types.CategoryUsers, base.Add(time.Hour), []string{"kali:1000", "mallory:1002"})

	if err := store.Append(first); err != nil {
		t.Fatalf("failed to append first snapshot: %v", err)
	}
	if err := store.Append(second); err != nil {
		t.Fatalf("failed to append second snapshot: %v", err)
	}

	history, err := store.Latest(types.CategoryUsers, 2)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(history))
	}
	if !history[0].CapturedAt.After(history[1].CapturedAt) {
		t.Errorf("history not newest first: %v then %v", history[0].CapturedAt, history[1].CapturedAt)
	}
	if len(history[0].Entries) != 2 {
		t.Errorf("newest snapshot entries = %v", history[0].Entries)
	}
	if len(history[1].Entries) != 1 {
		t.Errorf("oldest snapshot entries = %v", history[1].Entries)
	}
}

func TestLocalStore_LatestLimitsAndIsolation(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		snap := types.NewSnapshot(types.CategorySUID, base.Add(time.Duration(i)*time.Hour), []string{"/usr/bin/sudo"})
		if err := store.Append(snap); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	history, err := store.Latest(types.CategorySUID, 2)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected the 2 newest snapshots, got %d", len(history))
	}
	if !history[0].CapturedAt.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("newest = %v, want %v", history[0].CapturedAt, base.Add(4*time.Hour))
	}

	// Other categories never bleed through.
	other, err := store.Latest(types.CategoryBinaries, 2)
	if err != nil {
		t.Fatalf("failed to load binaries history: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected empty binaries history, got %d", len(other))
	}
}

func TestLocalStore_FailedCaptureRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Append(types.FailedSnapshot(types.CategoryPeers, at)); err != nil {
		t.Fatalf("failed to append failed capture: %v", err)
	}

	history, err := store.Latest(types.CategoryPeers, 1)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(history))
	}
	if !history[0].CollectionFailed {
		t.Error("failed capture lost its marker on round trip")
	}
	if len(history[0].Entries) != 0 {
		t.Errorf("failed capture carried entries: %v", history[0].Entries)
	}
}

func TestLocalStore_PruneRetentionBoundary(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	retention := 30 * 24 * time.Hour

	ages := map[string]time.Duration{
		"fresh":       1 * 24 * time.Hour,
		"at-boundary": 30 * 24 * time.Hour,
		"expired":     31 * 24 * time.Hour,
	}
	for name, age := range ages {
		snap := types.NewSnapshot(types.CategoryUsers, now.Add(-age), []string{name})
		if err := store.Append(snap); err != nil {
			t.Fatalf("failed to append %s: %v", name, err)
		}
	}

	deleted, errs := store.Prune(retention, now)
	if len(errs) != 0 {
		t.Fatalf("unexpected prune errors: %v", errs)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1 (only strictly older than retention)", deleted)
	}

	history, err := store.Latest(types.CategoryUsers, 10)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(history))
	}
	for _, snap := range history {
		if snap.Entries[0] == "expired" {
			t.Error("expired snapshot survived the sweep")
		}
	}
}

func TestLocalStore_PruneCountsFailedArtifacts(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	if err := store.Append(types.FailedSnapshot(types.CategoryBinaries, now.Add(-40*24*time.Hour))); err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	deleted, errs := store.Prune(30*24*time.Hour, now)
	if len(errs) != 0 {
		t.Fatalf("unexpected prune errors: %v", errs)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1; failed artifacts age out like any other", deleted)
	}
}
