// Package classifier maps diff and probe results onto the alert taxonomy.
// Every rule is evaluated; alerts are never downgraded or deduplicated
// across categories.
package classifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/yairfalse/vigil/internal/probes"
	"github.com/yairfalse/vigil/pkg/types"
)

// Classifier turns raw findings into alerts.
type Classifier struct {
	now func() time.Time
}

// New creates a classifier using wall-clock time.
func New() *Classifier {
	return &Classifier{now: time.Now}
}

// NewAt creates a classifier with a fixed clock, for tests.
func NewAt(now func() time.Time) *Classifier {
	return &Classifier{now: now}
}

// Classify applies every rule to the diff and probe results. A diff without
// a baseline contributes nothing regardless of its contents; a suppressed
// diff (failed capture on either side) likewise.
func (c *Classifier) Classify(diffs []*types.DiffResult, results *probes.Results) []types.Alert {
	var alerts []types.Alert
	now := c.now()

	for _, diff := range diffs {
		if diff == nil || !diff.HasChanges() {
			continue
		}
		severity := types.SeverityWarn
		if diff.Category.SecuritySensitive() {
			severity = types.SeverityCritical
		}
		if len(diff.Added) > 0 {
			alerts = append(alerts, types.Alert{
				Timestamp: now,
				Severity:  severity,
				Source:    diff.Category.String(),
				Message:   fmt.Sprintf("%s: added %s", diff.Category, summarize(diff.Added)),
			})
		}
		if len(diff.Removed) > 0 {
			alerts = append(alerts, types.Alert{
				Timestamp: now,
				Severity:  severity,
				Source:    diff.Category.String(),
				Message:   fmt.Sprintf("%s: removed %s", diff.Category, summarize(diff.Removed)),
			})
		}
	}

	for _, probe := range results.Probes {
		switch probe.State {
		case types.StateCritical:
			alerts = append(alerts, types.Alert{
				Timestamp: now,
				Severity:  types.SeverityCritical,
				Source:    probe.Name,
				Message:   probeMessage(probe),
			})
		case types.StateWarn:
			alerts = append(alerts, types.Alert{
				Timestamp: now,
				Severity:  types.SeverityWarn,
				Source:    probe.Name,
				Message:   probeMessage(probe),
			})
		}
	}

	return alerts
}

// summarize keeps diff alert messages bounded on hosts where a category
// churns heavily.
func summarize(entries []string) string {
	const maxShown = 5
	if len(entries) <= maxShown {
		return strings.Join(entries, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(entries[:maxShown], ", "), len(entries)-maxShown)
}

func probeMessage(probe types.ProbeResult) string {
	if probe.Display != "" {
		return fmt.Sprintf("%s is %s (%s)", probe.Name, probe.State, probe.Display)
	}
	return fmt.Sprintf("%s is %s", probe.Name, probe.State)
}
