// Package engine runs one drift-detection pass: probes and snapshot capture,
// diffing against the previous capture, classification, synthesis of the
// status record, and retention. Each invocation is independent and runs to
// completion; mutual exclusion between invocations is the scheduler's job.
package engine

import (
	"context"
	"time"

	"github.com/yairfalse/vigil/internal/classifier"
	"github.com/yairfalse/vigil/internal/collectors"
	"github.com/yairfalse/vigil/internal/differ"
	vigilerrors "github.com/yairfalse/vigil/internal/errors"
	"github.com/yairfalse/vigil/internal/logger"
	"github.com/yairfalse/vigil/internal/probes"
	"github.com/yairfalse/vigil/internal/storage"
	"github.com/yairfalse/vigil/pkg/types"
)

// Prober runs the health probe set for one invocation.
type Prober interface {
	Run(ctx context.Context) *probes.Results
}

// Engine wires the invocation-scoped components together.
type Engine struct {
	registry   *collectors.Registry
	store      storage.Store
	publisher  storage.Publisher
	prober     Prober
	differ     *differ.Differ
	classifier *classifier.Classifier
	retention  time.Duration
	log        logger.Logger
	now        func() time.Time
}

// Options configures an Engine.
type Options struct {
	Registry  *collectors.Registry
	Store     storage.Store
	Publisher storage.Publisher
	Prober    Prober
	Retention time.Duration
	Logger    logger.Logger
	Now       func() time.Time
}

// New builds an engine.
func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		registry:   opts.Registry,
		store:      opts.Store,
		publisher:  opts.Publisher,
		prober:     opts.Prober,
		differ:     differ.New(),
		classifier: classifier.NewAt(now),
		retention:  opts.Retention,
		log:        opts.Logger,
		now:        now,
	}
}

// Result summarizes one pass for the caller.
type Result struct {
	Record     *types.StatusRecord
	Probes     *probes.Results
	Diffs      []*types.DiffResult
	AlertTotal int
}

// Run executes one full pass. Only a publish failure is returned as an
// error; collection, probe, and retention failures degrade and the pass
// continues. Alerts are data, not failure.
func (e *Engine) Run(ctx context.Context, deep bool) (*Result, error) {
	capturedAt := e.now().UTC()

	// Probes have no ordering dependency and join before classification.
	probeResults := e.prober.Run(ctx)

	// Capture must precede diffing within the same invocation.
	diffs := e.captureAndDiff(ctx, capturedAt, deep)

	alerts := e.classifier.Classify(diffs, probeResults)

	record := e.synthesize(capturedAt, alerts, probeResults, deep)
	if err := e.publisher.Publish(record); err != nil {
		e.log.Error("failed to publish status record", err)
		return nil, err
	}

	e.prune()

	return &Result{Record: record, Probes: probeResults, Diffs: diffs, AlertTotal: len(alerts)}, nil
}

// captureAndDiff appends one snapshot per category and diffs it against the
// previous one. A collector that cannot run fails soft: the category gets a
// failed snapshot so retention age semantics stay uniform, and its diff is
// suppressed.
func (e *Engine) captureAndDiff(ctx context.Context, capturedAt time.Time, deep bool) []*types.DiffResult {
	var diffs []*types.DiffResult

	for _, collector := range e.registry.All() {
		category := collector.Category()
		if category == types.CategoryPeers && !deep {
			continue
		}

		log := e.log.WithField("category", category.String())

		entries, err := collector.Collect(ctx)
		var snapshot *types.Snapshot
		if err != nil {
			cerr := vigilerrors.New(vigilerrors.KindCollection, category.String(), err)
			log.Error("collection failed, category degraded", cerr)
			snapshot = types.FailedSnapshot(category, capturedAt)
		} else {
			snapshot = types.NewSnapshot(category, capturedAt, entries)
		}

		if err := e.store.Append(snapshot); err != nil {
			log.Error("failed to append snapshot", err)
			// History is unusable for this category this round; do not diff
			// against a capture that was never persisted.
			continue
		}

		history, err := e.store.Latest(category, 2)
		if err != nil {
			log.Error("failed to load snapshot history", err)
			continue
		}
		diff := e.differ.DiffLatest(history)
		if diff != nil {
			if !diff.BaselineAvailable {
				log.Info("baseline established")
			}
			diffs = append(diffs, diff)
		}
	}
	return diffs
}

// synthesize merges alerts, probe output, and auxiliary counts into the
// published contract. alert_count is derived from the final alert list,
// never incremented independently.
func (e *Engine) synthesize(capturedAt time.Time, alerts []types.Alert, results *probes.Results, deep bool) *types.StatusRecord {
	actionable := make([]types.Alert, 0, len(alerts))
	for _, alert := range alerts {
		if alert.Severity.Actionable() {
			actionable = append(actionable, alert)
		}
	}

	// Most-recent-last, capped; oldest dropped first.
	recent := actionable
	if len(recent) > types.RecentAlertCap {
		recent = recent[len(recent)-types.RecentAlertCap:]
	}

	record := &types.StatusRecord{
		Timestamp:       capturedAt,
		AlertCount:      len(recent),
		FailedAuthCount: results.FailedAuthCount,
		ServiceStates:   results.ServiceStates,
		BannedPeerCount: len(results.BannedPeers),
		BannedPeers:     results.BannedPeers,
		RecentAlerts:    recent,
		NetworkState:    results.NetworkState,
	}
	if record.BannedPeers == nil {
		record.BannedPeers = []string{}
	}
	if record.RecentAlerts == nil {
		record.RecentAlerts = []types.Alert{}
	}

	record.DiskPct = results.Find("disk").Value
	record.MemPct = results.Find("memory").Value
	record.CPUTemp = results.Find("cpu_temp").Value

	record.DiscoveredPeers = []string{}
	if deep {
		if peers := latestPeerEntries(e.store); peers != nil {
			record.DiscoveredPeers = peers
		}
	}

	return record
}

func latestPeerEntries(store storage.Store) []string {
	history, err := store.Latest(types.CategoryPeers, 1)
	if err != nil || len(history) == 0 || history[0].CollectionFailed {
		return nil
	}
	return types.SortedCopy(history[0].Entries)
}

// prune runs the retention sweep. Failures are logged and skipped, never
// fatal to the invocation.
func (e *Engine) prune() {
	deleted, errs := e.store.Prune(e.retention, e.now())
	for _, err := range errs {
		e.log.Error("retention sweep", vigilerrors.New(vigilerrors.KindRetention, "", err))
	}
	if deleted > 0 {
		e.log.WithField("deleted", deleted).Info("pruned expired snapshots")
	}
}
