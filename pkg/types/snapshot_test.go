package types

import (
	"reflect"
	"testing"
	"time"
)

func TestNewSnapshot_DeduplicatesAndDropsEmpties(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := NewSnapshot(CategoryUsers, at, []string{"kali:1000", "", "pi:1001", "kali:1000"})

	want := []string{"kali:1000", "pi:1001"}
	if !reflect.DeepEqual(snap.Entries, want) {
		t.Errorf("Entries = %v, want %v", snap.Entries, want)
	}
	if snap.CollectionFailed {
		t.Error("healthy snapshot marked failed")
	}
}

func TestFailedSnapshot(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := FailedSnapshot(CategoryPeers, at)

	if !snap.CollectionFailed {
		t.Error("failed snapshot not marked")
	}
	if len(snap.Entries) != 0 {
		t.Errorf("failed snapshot carries entries: %v", snap.Entries)
	}
}

func TestCategory_SecuritySensitive(t *testing.T) {
	sensitive := map[Category]bool{
		CategoryBinaries: true,
		CategoryUsers:    true,
		CategoryAuthKeys: true,
		CategorySUID:     false,
		CategoryPeers:    false,
	}
	for category, want := range sensitive {
		if got := category.SecuritySensitive(); got != want {
			t.Errorf("%s.SecuritySensitive() = %v, want %v", category, got, want)
		}
	}
}

func TestSeverity_Actionable(t *testing.T) {
	if SeverityInfo.Actionable() {
		t.Error("info must not count toward alert_count")
	}
	if !SeverityWarn.Actionable() || !SeverityCritical.Actionable() {
		t.Error("warn and critical must count toward alert_count")
	}
}

func TestNetworkState_Terminal(t *testing.T) {
	terminal := []NetworkState{NetConnected, NetFailed, NetNeedsReauth}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	transient := []NetworkState{NetUnknown, NetLinkDown, NetLinkUp, NetAttemptManaged, NetAttemptLowLevel, NetAttemptRestart}
	for _, s := range transient {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestSortedCopy_DoesNotMutate(t *testing.T) {
	original := []string{"c", "a", "b"}
	sorted := SortedCopy(original)

	if !reflect.DeepEqual(sorted, []string{"a", "b", "c"}) {
		t.Errorf("SortedCopy = %v", sorted)
	}
	if !reflect.DeepEqual(original, []string{"c", "a", "b"}) {
		t.Errorf("input mutated: %v", original)
	}
}
