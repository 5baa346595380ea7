// Package output renders engine results for humans. The machine-readable
// contract is the published JSON record; everything here is presentation
// only.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/yairfalse/vigil/pkg/types"
)

// Formatter renders status records and pass summaries.
type Formatter struct {
	noColor bool
}

// NewFormatter creates a formatter. Color is disabled when asked, and
// automatically when stdout is not a terminal.
func NewFormatter(noColor bool) *Formatter {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		noColor = true
	}
	return &Formatter{noColor: noColor}
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if f.noColor {
		return s
	}
	return c.Sprint(s)
}

func (f *Formatter) severityColor(severity types.Severity) *color.Color {
	switch severity {
	case types.SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case types.SeverityWarn:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func (f *Formatter) stateColor(state types.ThresholdState) *color.Color {
	switch state {
	case types.StateCritical:
		return color.New(color.FgRed, color.Bold)
	case types.StateWarn:
		return color.New(color.FgYellow)
	case types.StateOK:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgWhite)
	}
}

// FormatStatus renders a published status record as a table.
func (f *Formatter) FormatStatus(record *types.StatusRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Host Status  %s\n", record.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 44))

	alertLabel := fmt.Sprintf("%d", record.AlertCount)
	if record.AlertCount > 0 {
		alertLabel = f.paint(color.New(color.FgRed, color.Bold), alertLabel)
	} else {
		alertLabel = f.paint(color.New(color.FgGreen), alertLabel)
	}
	fmt.Fprintf(&b, "Alerts:        %s\n", alertLabel)
	fmt.Fprintf(&b, "Disk:          %.0f%%\n", record.DiskPct)
	fmt.Fprintf(&b, "Memory:        %.0f%%\n", record.MemPct)
	fmt.Fprintf(&b, "CPU temp:      %.0fC\n", record.CPUTemp)
	fmt.Fprintf(&b, "Failed auth:   %d (6h)\n", record.FailedAuthCount)
	fmt.Fprintf(&b, "Banned peers:  %d\n", record.BannedPeerCount)
	fmt.Fprintf(&b, "Network:       %s\n", string(record.NetworkState))

	if len(record.ServiceStates) > 0 {
		b.WriteString("\nServices:\n")
		for _, name := range sortedKeys(record.ServiceStates) {
			state := record.ServiceStates[name]
			label := state
			switch state {
			case "active":
				label = f.paint(color.New(color.FgGreen), state)
			case "inactive":
				label = f.paint(color.New(color.FgRed), state)
			}
			fmt.Fprintf(&b, "  %-12s %s\n", name, label)
		}
	}

	if len(record.RecentAlerts) > 0 {
		b.WriteString("\nRecent alerts:\n")
		for _, alert := range record.RecentAlerts {
			sev := f.paint(f.severityColor(alert.Severity), strings.ToUpper(string(alert.Severity)))
			fmt.Fprintf(&b, "  [%s] %s  %s\n", sev, alert.Timestamp.Format("15:04:05"), alert.Message)
		}
	}

	if len(record.DiscoveredPeers) > 0 {
		b.WriteString("\nDiscovered peers:\n")
		for _, peer := range record.DiscoveredPeers {
			fmt.Fprintf(&b, "  %s\n", peer)
		}
	}

	return b.String()
}

// FormatProbeLine renders one probe result for check output.
func (f *Formatter) FormatProbeLine(probe types.ProbeResult) string {
	state := f.paint(f.stateColor(probe.State), string(probe.State))
	if probe.Display != "" {
		return fmt.Sprintf("  %-16s %-10s %s", probe.Name, probe.Display, state)
	}
	return fmt.Sprintf("  %-16s %-10s %s", probe.Name, "-", state)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
