package netup

import (
	"context"
	"os"
	"strings"

	"github.com/yairfalse/vigil/internal/logger"
	"github.com/yairfalse/vigil/pkg/types"
)

// FirstBoot runs the machine once and disables its own trigger marker on
// reaching a terminal state, so the one-shot variant never re-runs.
func (m *Machine) FirstBoot(ctx context.Context) (types.NetworkState, error) {
	state, err := m.Run(ctx)
	if err != nil {
		return state, err
	}

	if state.Terminal() {
		if rmErr := os.Remove(m.cfg.TriggerMarker); rmErr != nil && !os.IsNotExist(rmErr) {
			m.log.Error("failed to disable first-boot trigger", rmErr)
		}
	}

	switch state {
	case types.NetConnected:
		m.log.Info("first-boot network bring-up connected")
	case types.NetNeedsReauth:
		m.log.Warn("first-boot bring-up needs reauthentication; manual login required")
	default:
		m.log.Warn("first-boot bring-up exhausted all attempts; manual intervention required")
	}
	return state, nil
}

// Watchdog runs the machine once in recurring mode. It never disables
// itself, and to keep logs quiet on constrained storage it only logs
// transitions into FAILED or degraded states and recoveries from them; a
// steady CONNECTED is silent.
func (m *Machine) Watchdog(ctx context.Context) (types.NetworkState, error) {
	previous := readPersisted(m.cfg.StateFile)

	state, err := m.Run(ctx)
	if err != nil {
		return state, err
	}

	logTransition(m.log, previous, state)
	return state, nil
}

func logTransition(log logger.Logger, previous, current types.NetworkState) {
	if previous == current {
		return
	}
	fields := log.WithFields(map[string]interface{}{
		"from": string(previous),
		"to":   string(current),
	})
	switch {
	case current == types.NetFailed || current == types.NetNeedsReauth:
		fields.Warn("network degraded")
	case current == types.NetConnected && previous != types.NetUnknown:
		fields.Info("network recovered")
	case current == types.NetConnected:
		// First observation after boot; nothing to announce.
	default:
		fields.Debug("network state changed")
	}
}

func readPersisted(stateFile string) types.NetworkState {
	data, err := os.ReadFile(stateFile)
	if err != nil {
		return types.NetUnknown
	}
	return parseState(string(data))
}

func parseState(raw string) types.NetworkState {
	state := types.NetworkState(strings.TrimSpace(raw))
	switch state {
	case types.NetConnected, types.NetFailed, types.NetNeedsReauth,
		types.NetLinkDown, types.NetLinkUp, types.NetAttemptManaged,
		types.NetAttemptLowLevel, types.NetAttemptRestart:
		return state
	}
	return types.NetUnknown
}
