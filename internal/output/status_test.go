package output

import (
	"strings"
	"testing"
	"time"

	"github.com/yairfalse/vigil/pkg/types"
)

func TestFormatStatus(t *testing.T) {
	f := &Formatter{noColor: true}

	record := &types.StatusRecord{
		Timestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		AlertCount:      2,
		DiskPct:         42.4,
		MemPct:          61.0,
		CPUTemp:         55.2,
		FailedAuthCount: 3,
		ServiceStates:   map[string]string{"ssh": "active", "fail2ban": "inactive", "auditd": "unknown"},
		BannedPeerCount: 1,
		BannedPeers:     []string{"203.0.113.9"},
		RecentAlerts: []types.Alert{
			{Timestamp: time.Date(2026, 3, 1, 11, 58, 0, 0, time.UTC), Severity: types.SeverityCritical, Source: "users", Message: "users: added mallory:1002"},
			{Timestamp: time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC), Severity: types.SeverityWarn, Source: "memory", Message: "memory is warn (85%)"},
		},
		DiscoveredPeers: []string{"192.168.1.1 aa:bb:cc:dd:ee:01"},
		NetworkState:    types.NetConnected,
	}

	out := f.FormatStatus(record)

	for _, want := range []string{
		"Alerts:        2",
		"Disk:          42%",
		"Memory:        61%",
		"CPU temp:      55C",
		"Failed auth:   3",
		"Banned peers:  1",
		"Network:       CONNECTED",
		"users: added mallory:1002",
		"[CRITICAL]",
		"[WARN]",
		"192.168.1.1 aa:bb:cc:dd:ee:01",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	// Services render sorted, so output is stable across runs.
	auditd := strings.Index(out, "auditd")
	fail2ban := strings.Index(out, "fail2ban")
	ssh := strings.Index(out, "ssh ")
	if auditd < 0 || fail2ban < 0 || ssh < 0 || !(auditd < fail2ban && fail2ban < ssh) {
		t.Errorf("services not sorted:\n%s", out)
	}

	if strings.Contains(out, "\x1b[") {
		t.Error("noColor output carries escape codes")
	}
}

func TestFormatProbeLine(t *testing.T) {
	f := &Formatter{noColor: true}

	line := f.FormatProbeLine(types.ProbeResult{Name: "disk", Value: 42, Display: "42%", State: types.StateOK})
	if !strings.Contains(line, "disk") || !strings.Contains(line, "42%") || !strings.Contains(line, "ok") {
		t.Errorf("line = %q", line)
	}

	bare := f.FormatProbeLine(types.ProbeResult{Name: "network", State: types.StateUnknown})
	if !strings.Contains(bare, "-") {
		t.Errorf("probe without display should show a dash: %q", bare)
	}
}
