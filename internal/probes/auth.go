package probes

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/yairfalse/vigil/pkg/types"
)

// FailedAuth counts failed SSH authentications in the trailing window from
// the journal. It carries its own sub-thresholds: warn for any failure,
// critical past AuthCritCount, independent of the generic probe rule.
func FailedAuth(ctx context.Context, unit string, window, timeout time.Duration) (int, types.ProbeResult) {
	result := types.ProbeResult{Name: "failed_auth", State: types.StateUnknown}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	since := fmt.Sprintf("-%dmin", int(window.Minutes()))
	out, err := exec.CommandContext(ctx, "journalctl",
		"-u", unit, "--since", since, "--no-pager", "-q", "-o", "cat").Output()
	if err != nil {
		return 0, result
	}

	count := CountAuthFailures(string(out))
	result.Value = float64(count)
	result.Display = fmt.Sprintf("%d", count)
	result.State = authState(count)
	return count, result
}

// CountAuthFailures counts failed-authentication lines in sshd journal
// output.
func CountAuthFailures(journal string) int {
	count := 0
	for _, line := range strings.Split(journal, "\n") {
		if strings.Contains(line, "Failed password") ||
			strings.Contains(line, "Invalid user") ||
			strings.Contains(line, "authentication failure") {
			count++
		}
	}
	return count
}

func authState(count int) types.ThresholdState {
	switch {
	case count > AuthCritCount:
		return types.StateCritical
	case count > AuthWarnCount:
		return types.StateWarn
	default:
		return types.StateOK
	}
}
