package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yairfalse/vigil/internal/collectors"
	"github.com/yairfalse/vigil/internal/logger"
	"github.com/yairfalse/vigil/internal/probes"
	"github.com/yairfalse/vigil/internal/storage"
	"github.com/yairfalse/vigil/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Debug(string)        {}
func (nopLogger) Info(string)         {}
func (nopLogger) Warn(string)         {}
func (nopLogger) Error(string, error) {}

func (nopLogger) WithField(string, interface{}) logger.Logger { return nopLogger{} }

func (nopLogger) WithFields(map[string]interface{}) logger.Logger { return nopLogger{} }

// fakeCollector serves scripted entries, or an error when entries is nil.
type fakeCollector struct {
	category types.Category
	entries  []string
	fail     bool
	calls    int
}

func (c *fakeCollector) Category() types.Category { return c.category }

func (c *fakeCollector) Collect(ctx context.Context) ([]string, error) {
	c.calls++
	if c.fail {
		return nil, errors.New("collector broke")
	}
	return c.entries, nil
}

type fakeProber struct {
	results *probes.Results
}

func (p *fakeProber) Run(ctx context.Context) *probes.Results {
	if p.results != nil {
		return p.results
	}
	return &probes.Results{ServiceStates: map[string]string{}, NetworkState: types.NetUnknown}
}

type capturingPublisher struct {
	record *types.StatusRecord
	err    error
}

func (p *capturingPublisher) Publish(record *types.StatusRecord) error {
	if p.err != nil {
		return p.err
	}
	p.record = record
	return nil
}

type harness struct {
	engine    *Engine
	users     *fakeCollector
	peers     *fakeCollector
	publisher *capturingPublisher
	prober    *fakeProber
	clock     *time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	users := &fakeCollector{category: types.CategoryUsers, entries: []string{"kali:1000"}}
	peers := &fakeCollector{category: types.CategoryPeers, entries: []string{"192.0.2.7 aa:bb:cc:dd:ee:ff"}}
	publisher := &capturingPublisher{}
	prober := &fakeProber{}

	registry := collectors.NewRegistry()
	registry.Register(users)
	registry.Register(peers)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now

	eng := New(Options{
		Registry:  registry,
		Store:     store,
		Publisher: publisher,
		Prober:    prober,
		Retention: 30 * 24 * time.Hour,
		Logger:    nopLogger{},
		Now:       func() time.Time { return *clock },
	})

	return &harness{engine: eng, users: users, peers: peers, publisher: publisher, prober: prober, clock: clock}
}

func (h *harness) tick() {
	*h.clock = h.clock.Add(time.Minute)
}

func TestEngine_FirstPassEstablishesBaseline(t *testing.T) {
	h := newHarness(t)

	result, err := h.engine.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AlertTotal != 0 {
		t.Errorf("first pass alerted: %d alerts", result.AlertTotal)
	}
	record := h.publisher.record
	if record == nil {
		t.Fatal("no record published")
	}
	if record.AlertCount != 0 {
		t.Errorf("alert_count = %d, want 0", record.AlertCount)
	}
	if len(record.RecentAlerts) != 0 {
		t.Errorf("recent_alerts = %v, want empty", record.RecentAlerts)
	}
	if record.RecentAlerts == nil || record.BannedPeers == nil || record.DiscoveredPeers == nil {
		t.Error("published slices must be empty, never null")
	}
}

func TestEngine_DriftOnSecondPass(t *testing.T) {
	h := newHarness(t)

	if _, err := h.engine.Run(context.Background(), false); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	h.tick()
	h.users.entries = []string{"kali:1000", "mallory:1002"}
	result, err := h.engine.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if result.AlertTotal != 1 {
		t.Fatalf("alert total = %d, want 1", result.AlertTotal)
	}
	record := h.publisher.record
	if record.AlertCount != 1 {
		t.Errorf("alert_count = %d, want 1", record.AlertCount)
	}
	if record.AlertCount != len(record.RecentAlerts) {
		t.Errorf("alert_count %d diverged from recent_alerts length %d", record.AlertCount, len(record.RecentAlerts))
	}
	if record.RecentAlerts[0].Severity != types.SeverityCritical {
		t.Errorf("user drift severity = %s, want critical", record.RecentAlerts[0].Severity)
	}
	// One clock for the whole pass: alerts carry the record's timestamp.
	if !record.RecentAlerts[0].Timestamp.Equal(record.Timestamp) {
		t.Errorf("alert timestamp %v diverged from record timestamp %v",
			record.RecentAlerts[0].Timestamp, record.Timestamp)
	}
}

func TestEngine_RecentAlertsCapped(t *testing.T) {
	h := newHarness(t)

	// More warning probes than the record may carry.
	var probeResults []types.ProbeResult
	for i := 0; i < types.RecentAlertCap+5; i++ {
		probeResults = append(probeResults, types.ProbeResult{
			Name:  fmt.Sprintf("tool:fake%d", i),
			State: types.StateWarn,
		})
	}
	h.prober.results = &probes.Results{
		Probes:        probeResults,
		ServiceStates: map[string]string{},
		NetworkState:  types.NetUnknown,
	}

	result, err := h.engine.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := h.publisher.record
	if len(record.RecentAlerts) != types.RecentAlertCap {
		t.Errorf("recent_alerts length = %d, want %d", len(record.RecentAlerts), types.RecentAlertCap)
	}
	if record.AlertCount != types.RecentAlertCap {
		t.Errorf("alert_count = %d, want the capped length", record.AlertCount)
	}
	if result.AlertTotal != types.RecentAlertCap+5 {
		t.Errorf("alert total = %d, want the uncapped count", result.AlertTotal)
	}
	// Oldest dropped first: the survivors are the tail of the list.
	if record.RecentAlerts[0].Source != "tool:fake5" {
		t.Errorf("first surviving alert = %s, want tool:fake5", record.RecentAlerts[0].Source)
	}
}

func TestEngine_CollectorFailureSuppressesDiff(t *testing.T) {
	h := newHarness(t)

	if _, err := h.engine.Run(context.Background(), false); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	h.tick()
	h.users.fail = true
	result, err := h.engine.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if result.AlertTotal != 0 {
		t.Errorf("failed capture produced %d alerts, want 0", result.AlertTotal)
	}

	// Recovery: the next healthy capture diffs against the failed one and
	// stays suppressed, never reporting the outage as removals.
	h.tick()
	h.users.fail = false
	result, err = h.engine.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("third pass: %v", err)
	}
	if result.AlertTotal != 0 {
		t.Errorf("recovery pass produced %d alerts, want 0", result.AlertTotal)
	}
}

func TestEngine_DeepControlsPeerCollection(t *testing.T) {
	h := newHarness(t)

	if _, err := h.engine.Run(context.Background(), false); err != nil {
		t.Fatalf("shallow pass: %v", err)
	}
	if h.peers.calls != 0 {
		t.Errorf("peer collector ran %d times on a shallow pass", h.peers.calls)
	}
	if len(h.publisher.record.DiscoveredPeers) != 0 {
		t.Errorf("shallow pass published peers: %v", h.publisher.record.DiscoveredPeers)
	}

	h.tick()
	if _, err := h.engine.Run(context.Background(), true); err != nil {
		t.Fatalf("deep pass: %v", err)
	}
	if h.peers.calls != 1 {
		t.Errorf("peer collector calls = %d, want 1", h.peers.calls)
	}
	record := h.publisher.record
	if len(record.DiscoveredPeers) != 1 || record.DiscoveredPeers[0] != "192.0.2.7 aa:bb:cc:dd:ee:ff" {
		t.Errorf("discovered_peers = %v", record.DiscoveredPeers)
	}
}

func TestEngine_PublishFailureIsFatal(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = errors.New("disk full")

	if _, err := h.engine.Run(context.Background(), false); err == nil {
		t.Fatal("expected the publish failure to surface")
	}
}

func TestEngine_ProbeTelemetryOnRecord(t *testing.T) {
	h := newHarness(t)
	h.prober.results = &probes.Results{
		Probes: []types.ProbeResult{
			{Name: "disk", Value: 42.5, State: types.StateOK},
			{Name: "memory", Value: 61.0, State: types.StateOK},
			{Name: "cpu_temp", Value: 55.2, State: types.StateOK},
		},
		ServiceStates:   map[string]string{"ssh": "active"},
		FailedAuthCount: 3,
		BannedPeers:     []string{"203.0.113.9"},
		NetworkState:    types.NetConnected,
	}

	if _, err := h.engine.Run(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := h.publisher.record
	if record.DiskPct != 42.5 || record.MemPct != 61.0 || record.CPUTemp != 55.2 {
		t.Errorf("telemetry = %v/%v/%v", record.DiskPct, record.MemPct, record.CPUTemp)
	}
	if record.FailedAuthCount != 3 {
		t.Errorf("failed_auth_count = %d", record.FailedAuthCount)
	}
	if record.BannedPeerCount != 1 || record.BannedPeers[0] != "203.0.113.9" {
		t.Errorf("banned peers = %d %v", record.BannedPeerCount, record.BannedPeers)
	}
	if record.NetworkState != types.NetConnected {
		t.Errorf("network_state = %s", record.NetworkState)
	}
	if record.ServiceStates["ssh"] != "active" {
		t.Errorf("service_states = %v", record.ServiceStates)
	}
}
