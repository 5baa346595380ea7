package classifier

import (
	"strings"
	"testing"
	"time"

	"github.com/yairfalse/vigil/internal/probes"
	"github.com/yairfalse/vigil/pkg/types"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newAtFixed() *Classifier {
	return NewAt(func() time.Time { return fixedNow })
}

func emptyResults() *probes.Results {
	return &probes.Results{}
}

func TestClassify_UserAdded(t *testing.T) {
	c := newAtFixed()

	diff := &types.DiffResult{
		Category:          types.CategoryUsers,
		Added:             []string{"mallory:1002"},
		BaselineAvailable: true,
	}

	alerts := c.Classify([]*types.DiffResult{diff}, emptyResults())

	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	alert := alerts[0]
	if alert.Severity != types.SeverityCritical {
		t.Errorf("user drift severity = %s, want critical", alert.Severity)
	}
	if alert.Source != "users" {
		t.Errorf("source = %s, want users", alert.Source)
	}
	if !strings.Contains(alert.Message, "mallory:1002") {
		t.Errorf("message %q does not name the new account", alert.Message)
	}
	if !alert.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v, want %v", alert.Timestamp, fixedNow)
	}
}

func TestClassify_SeverityPerCategory(t *testing.T) {
	c := newAtFixed()

	tests := []struct {
		category types.Category
		want     types.Severity
	}{
		{types.CategoryBinaries, types.SeverityCritical},
		{types.CategoryUsers, types.SeverityCritical},
		{types.CategoryAuthKeys, types.SeverityCritical},
		{types.CategorySUID, types.SeverityWarn},
		{types.CategoryPeers, types.SeverityWarn},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			diff := &types.DiffResult{
				Category:          tt.category,
				Added:             []string{"something"},
				BaselineAvailable: true,
			}
			alerts := c.Classify([]*types.DiffResult{diff}, emptyResults())
			if len(alerts) != 1 {
				t.Fatalf("expected 1 alert, got %d", len(alerts))
			}
			if alerts[0].Severity != tt.want {
				t.Errorf("severity = %s, want %s", alerts[0].Severity, tt.want)
			}
		})
	}
}

func TestClassify_AddedAndRemovedAreSeparateAlerts(t *testing.T) {
	c := newAtFixed()

	diff := &types.DiffResult{
		Category:          types.CategoryAuthKeys,
		Added:             []string{"sha256:aaaa"},
		Removed:           []string{"sha256:bbbb"},
		BaselineAvailable: true,
	}

	alerts := c.Classify([]*types.DiffResult{diff}, emptyResults())
	if len(alerts) != 2 {
		t.Fatalf("expected separate added/removed alerts, got %d", len(alerts))
	}
	if !strings.Contains(alerts[0].Message, "added") {
		t.Errorf("first alert %q should describe the addition", alerts[0].Message)
	}
	if !strings.Contains(alerts[1].Message, "removed") {
		t.Errorf("second alert %q should describe the removal", alerts[1].Message)
	}
}

func TestClassify_BaselineAndSuppressionContributeNothing(t *testing.T) {
	c := newAtFixed()

	diffs := []*types.DiffResult{
		{Category: types.CategoryUsers, Added: []string{"kali:1000"}},
		{Category: types.CategoryBinaries, Removed: []string{"x"}, BaselineAvailable: true, Suppressed: true},
		nil,
	}

	if alerts := c.Classify(diffs, emptyResults()); len(alerts) != 0 {
		t.Errorf("expected no alerts, got %d: %+v", len(alerts), alerts)
	}
}

func TestClassify_ProbeStates(t *testing.T) {
	c := newAtFixed()

	results := &probes.Results{
		Probes: []types.ProbeResult{
			{Name: "disk", Value: 50, Display: "50%", State: types.StateOK},
			{Name: "memory", Value: 85, Display: "85%", State: types.StateWarn},
			{Name: "cpu_temp", Value: 85, Display: "85.0C", State: types.StateCritical},
			{Name: "service:auditd", State: types.StateUnknown},
		},
	}

	alerts := c.Classify(nil, results)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts (warn and critical only), got %d", len(alerts))
	}
	if alerts[0].Source != "memory" || alerts[0].Severity != types.SeverityWarn {
		t.Errorf("first alert = %+v, want memory warn", alerts[0])
	}
	if alerts[1].Source != "cpu_temp" || alerts[1].Severity != types.SeverityCritical {
		t.Errorf("second alert = %+v, want cpu_temp critical", alerts[1])
	}
	if !strings.Contains(alerts[1].Message, "85.0C") {
		t.Errorf("message %q should carry the display value", alerts[1].Message)
	}
}

func TestSummarize_Bounded(t *testing.T) {
	short := summarize([]string{"a", "b"})
	if short != "a, b" {
		t.Errorf("summarize short = %q", short)
	}

	long := summarize([]string{"a", "b", "c", "d", "e", "f", "g"})
	if !strings.HasSuffix(long, "and 2 more") {
		t.Errorf("summarize long = %q, want trailing 'and 2 more'", long)
	}
	if strings.Contains(long, "f") || strings.Contains(long, "g") {
		t.Errorf("summarize long = %q leaked entries past the cap", long)
	}
}
