package probes

import (
	"os"
	"strings"

	"github.com/yairfalse/vigil/pkg/types"
)

// NetworkBringUpState reads the terminal state the bring-up machine
// persisted. A missing or unreadable state file is unknown, not an alert.
func NetworkBringUpState(stateFile string) types.NetworkState {
	data, err := os.ReadFile(stateFile)
	if err != nil {
		return types.NetUnknown
	}
	state := types.NetworkState(strings.TrimSpace(string(data)))
	switch state {
	case types.NetUnknown, types.NetLinkDown, types.NetLinkUp,
		types.NetAttemptManaged, types.NetAttemptLowLevel, types.NetAttemptRestart,
		types.NetConnected, types.NetFailed, types.NetNeedsReauth:
		return state
	}
	return types.NetUnknown
}

// NetworkStateProbe maps the bring-up state onto the probe taxonomy.
// NEEDS_REAUTH is terminal and not auto-recoverable, so it surfaces as
// critical here instead of being retried indefinitely; FAILED likewise
// needs operator attention.
func NetworkStateProbe(state types.NetworkState) types.ProbeResult {
	result := types.ProbeResult{Name: "network", Display: string(state)}
	switch state {
	case types.NetConnected:
		result.State = types.StateOK
	case types.NetNeedsReauth, types.NetFailed:
		result.State = types.StateCritical
	case types.NetUnknown:
		result.State = types.StateUnknown
	default:
		result.State = types.StateWarn
	}
	return result
}
