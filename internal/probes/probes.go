// Package probes implements the stateless health checks. Every probe is a
// pure function of current host state, independent of history and of the
// other probes, and safe to run concurrently. A probe that cannot observe
// its target reports unknown instead of failing the invocation.
package probes

import (
	"context"
	"sync"

	"github.com/yairfalse/vigil/internal/logger"
	"github.com/yairfalse/vigil/pkg/config"
	"github.com/yairfalse/vigil/pkg/types"
)

// Fixed thresholds per probe. The failed-auth probe carries its own
// sub-thresholds independent of the generic warn/critical rule.
const (
	DiskWarnPct     = 80.0
	DiskCriticalPct = 90.0
	MemWarnPct      = 80.0
	MemCriticalPct  = 90.0
	TempWarnC       = 70.0
	TempCriticalC   = 80.0
	AuthWarnCount   = 0  // warn when count > 0
	AuthCritCount   = 10 // critical when count > 10
)

// Results is the joined output of one concurrent probe pass.
type Results struct {
	Probes          []types.ProbeResult
	ServiceStates   map[string]string
	FailedAuthCount int
	BannedPeers     []string
	NetworkState    types.NetworkState
}

// Find returns the probe result with the given name, or a zero result.
func (r *Results) Find(name string) types.ProbeResult {
	for _, p := range r.Probes {
		if p.Name == name {
			return p
		}
	}
	return types.ProbeResult{Name: name, State: types.StateUnknown}
}

// Runner executes the probe set for one invocation.
type Runner struct {
	cfg config.ProbesConfig
	net config.NetworkConfig
	log logger.Logger

	services serviceChecker
}

// NewRunner builds a runner over the configured probe set. The systemd
// connection is established lazily on the first pass; a host without a
// reachable system bus degrades every service to unknown.
func NewRunner(cfg config.ProbesConfig, net config.NetworkConfig, log logger.Logger) *Runner {
	return &Runner{cfg: cfg, net: net, log: log, services: newDBusChecker()}
}

// Run executes all probes concurrently and joins before returning. Order of
// Results.Probes is deterministic regardless of completion order.
func (r *Runner) Run(ctx context.Context) *Results {
	results := &Results{
		ServiceStates: make(map[string]string, len(r.cfg.Services)),
		NetworkState:  types.NetUnknown,
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		disk     types.ProbeResult
		mem      types.ProbeResult
		temp     types.ProbeResult
		auth     types.ProbeResult
		svc      []types.ProbeResult
		tools    []types.ProbeResult
		netProbe types.ProbeResult
	)

	wg.Add(7)
	go func() {
		defer wg.Done()
		disk = DiskUsage(r.cfg.DiskPath)
	}()
	go func() {
		defer wg.Done()
		mem = MemoryUsage(procMeminfo)
	}()
	go func() {
		defer wg.Done()
		temp = CPUTemperature(r.cfg.ThermalZone)
	}()
	go func() {
		defer wg.Done()
		count, result := FailedAuth(ctx, r.cfg.AuthService, r.cfg.AuthWindow, r.cfg.CommandTimeout)
		mu.Lock()
		results.FailedAuthCount = count
		mu.Unlock()
		auth = result
	}()
	go func() {
		defer wg.Done()
		states, probeResults := r.serviceLiveness(ctx)
		mu.Lock()
		for name, state := range states {
			results.ServiceStates[name] = state
		}
		mu.Unlock()
		svc = probeResults
	}()
	go func() {
		defer wg.Done()
		tools = ToolPresence(r.cfg.Tools)
	}()
	go func() {
		defer wg.Done()
		peers, err := BannedPeers(ctx, r.cfg.Fail2banJail, r.cfg.CommandTimeout)
		if err != nil {
			r.log.WithField("jail", r.cfg.Fail2banJail).Debug("banned peer lookup unavailable")
		}
		state := NetworkBringUpState(r.net.StateFile)
		netProbe = NetworkStateProbe(state)
		mu.Lock()
		results.BannedPeers = peers
		results.NetworkState = state
		mu.Unlock()
	}()
	wg.Wait()

	if load, uptime, err := LoadAndUptime(); err == nil {
		r.log.WithFields(map[string]interface{}{
			"load1":  load,
			"uptime": uptime,
		}).Debug("host telemetry")
	}

	results.Probes = append(results.Probes, disk, mem, temp, auth)
	results.Probes = append(results.Probes, svc...)
	results.Probes = append(results.Probes, tools...)
	results.Probes = append(results.Probes, netProbe)
	return results
}

// thresholdState judges a value against warn/critical cutoffs.
func thresholdState(value, warn, critical float64) types.ThresholdState {
	switch {
	case value > critical:
		return types.StateCritical
	case value >= warn:
		return types.StateWarn
	default:
		return types.StateOK
	}
}
