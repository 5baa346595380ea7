package probes

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/yairfalse/vigil/pkg/types"
)

// ToolPresence checks that the external security tools are installed. An
// absent tool is warn, not critical: the host still works, the coverage gap
// should be visible.
func ToolPresence(tools []string) []types.ProbeResult {
	results := make([]types.ProbeResult, 0, len(tools))
	for _, tool := range tools {
		result := types.ProbeResult{Name: "tool:" + tool}
		if _, err := exec.LookPath(tool); err != nil {
			result.Display = "absent"
			result.State = types.StateWarn
		} else {
			result.Value = 1
			result.Display = "present"
			result.State = types.StateOK
		}
		results = append(results, result)
	}
	return results
}

// BannedPeers lists the peers currently banned in the fail2ban jail.
func BannedPeers(ctx context.Context, jail string, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "fail2ban-client", "status", jail).Output()
	if err != nil {
		return nil, err
	}
	return ParseBannedPeers(string(out)), nil
}

// ParseBannedPeers extracts the banned IP list from fail2ban-client status
// output.
func ParseBannedPeers(out string) []string {
	for _, line := range strings.Split(out, "\n") {
		idx := strings.Index(line, "Banned IP list:")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(line[idx+len("Banned IP list:"):])
		if rest == "" {
			return nil
		}
		return strings.Fields(rest)
	}
	return nil
}
