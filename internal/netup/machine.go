// Package netup implements the cascading network bring-up state machine:
// an ordered, idempotent sequence of recovery attempts used both as a
// one-shot first-boot safety net and as a recurring connectivity watchdog.
// Every transition is a named, inspectable state rather than a best-effort
// shell chain.
package netup

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/yairfalse/vigil/internal/logger"
	"github.com/yairfalse/vigil/pkg/config"
	"github.com/yairfalse/vigil/pkg/types"
)

// Runner executes one external command. Injected so attempts can be faked
// in tests.
type Runner func(ctx context.Context, name string, args ...string) error

// LinkCheck reports whether the interface currently holds an IPv4 address.
type LinkCheck func(iface string) bool

// StatusQuery returns the connectivity tool's status JSON. Injected so a
// machine never talks to the real backend outside production wiring.
type StatusQuery func(ctx context.Context) (string, error)

// Machine walks the attempt sequence until connected or exhausted.
type Machine struct {
	cfg    config.NetworkConfig
	log    logger.Logger
	run    Runner
	check  LinkCheck
	status StatusQuery
	sleep  func(time.Duration)

	state types.NetworkState
}

// New builds a machine with real command execution and link checking.
func New(cfg config.NetworkConfig, log logger.Logger) *Machine {
	return &Machine{
		cfg: cfg,
		log: log,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
		check:  hasIPv4,
		status: tailscaleStatus,
		sleep:  time.Sleep,
		state:  types.NetUnknown,
	}
}

// NewWithRunner builds a machine with injected command execution, link
// checking, and sleeping, for tests. The status query reports unavailable
// unless replaced.
func NewWithRunner(cfg config.NetworkConfig, log logger.Logger, run Runner, check LinkCheck, sleep func(time.Duration)) *Machine {
	return &Machine{
		cfg:    cfg,
		log:    log,
		run:    run,
		check:  check,
		status: func(context.Context) (string, error) { return "", fmt.Errorf("status unavailable") },
		sleep:  sleep,
		state:  types.NetUnknown,
	}
}

func tailscaleStatus(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "tailscale", "status", "--json").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// State returns the current machine state.
func (m *Machine) State() types.NetworkState { return m.state }

// Run walks the attempt sequence and returns the terminal state. At every
// step an existing connection short-circuits straight to CONNECTED;
// re-running any attempt while connected is a no-op, never a
// disconnect/reconnect cycle. The whole walk is bounded by the sum of the
// settle delays.
func (m *Machine) Run(ctx context.Context) (types.NetworkState, error) {
	if reauth, err := m.needsReauth(ctx); err == nil && reauth {
		m.transition(types.NetNeedsReauth)
		return m.state, m.persist()
	}

	if m.check(m.cfg.Interface) {
		m.transition(types.NetConnected)
		return m.state, m.persist()
	}
	m.transition(types.NetLinkDown)

	// Attempts in fixed order: managed connect, low-level supplicant plus
	// DHCP, then a generic service restart.
	attempts := []struct {
		state types.NetworkState
		do    func(context.Context) error
	}{
		{types.NetAttemptManaged, m.attemptManaged},
		{types.NetAttemptLowLevel, m.attemptLowLevel},
		{types.NetAttemptRestart, m.attemptServiceRestart},
	}

	m.bringLinkUp(ctx)
	if m.check(m.cfg.Interface) {
		m.transition(types.NetConnected)
		return m.state, m.persist()
	}
	m.transition(types.NetLinkUp)

	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return m.state, err
		}

		m.transition(attempt.state)
		if err := attempt.do(ctx); err != nil {
			m.log.WithField("state", string(attempt.state)).Error("bring-up attempt failed", err)
		}
		m.sleep(m.cfg.SettleDelay)

		if m.check(m.cfg.Interface) {
			m.transition(types.NetConnected)
			return m.state, m.persist()
		}
	}

	m.transition(types.NetFailed)
	return m.state, m.persist()
}

func (m *Machine) transition(next types.NetworkState) {
	if m.state == next {
		return
	}
	m.log.WithFields(map[string]interface{}{
		"from": string(m.state),
		"to":   string(next),
	}).Debug("network state transition")
	m.state = next
}

func (m *Machine) bringLinkUp(ctx context.Context) {
	if err := m.run(ctx, "ip", "link", "set", m.cfg.Interface, "up"); err != nil {
		m.log.Error("failed to raise link", err)
	}
}

func (m *Machine) attemptManaged(ctx context.Context) error {
	return m.run(ctx, "nmcli", "device", "connect", m.cfg.Interface)
}

func (m *Machine) attemptLowLevel(ctx context.Context) error {
	if err := m.run(ctx, "wpa_supplicant", "-B", "-i", m.cfg.Interface,
		"-c", "/etc/wpa_supplicant/wpa_supplicant.conf"); err != nil {
		return err
	}
	return m.run(ctx, "dhclient", m.cfg.Interface)
}

func (m *Machine) attemptServiceRestart(ctx context.Context) error {
	return m.run(ctx, "systemctl", "restart", m.cfg.ManagedService)
}

// needsReauth asks the connectivity tool for its own backend state rather
// than inferring. NEEDS_REAUTH is terminal and not auto-recoverable.
func (m *Machine) needsReauth(ctx context.Context) (bool, error) {
	out, err := m.status(ctx)
	if err != nil {
		return false, err
	}
	return BackendNeedsLogin(out), nil
}

// BackendNeedsLogin reports whether the connectivity tool's status output
// declares a NeedsLogin backend state.
func BackendNeedsLogin(statusJSON string) bool {
	return strings.Contains(statusJSON, `"BackendState": "NeedsLogin"`) ||
		strings.Contains(statusJSON, `"BackendState":"NeedsLogin"`)
}

// persist writes the terminal state for the health probes to read.
func (m *Machine) persist() error {
	data := []byte(string(m.state) + "\n")
	if err := os.MkdirAll(dirOf(m.cfg.StateFile), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := m.cfg.StateFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, m.cfg.StateFile); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx <= 0 {
		return "."
	}
	return path[:idx]
}

func hasIPv4(iface string) bool {
	ifi, err := net.InterfaceByName(iface)
	if err != nil || ifi.Flags&net.FlagUp == 0 {
		return false
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil && !ip4.IsLoopback() && !ip4.IsLinkLocalUnicast() {
			return true
		}
	}
	return false
}
