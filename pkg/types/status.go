package types

import "time"

// ThresholdState is the outcome of judging a probe value against its fixed
// thresholds. Unknown means the probe could not observe its target and is
// never evidence of compromise.
type ThresholdState string

const (
	StateOK       ThresholdState = "ok"
	StateWarn     ThresholdState = "warn"
	StateCritical ThresholdState = "critical"
	StateUnknown  ThresholdState = "unknown"
)

// ProbeResult is the output of one stateless health check.
type ProbeResult struct {
	Name    string         `json:"name"`
	Value   float64        `json:"value"`
	Display string         `json:"display,omitempty"`
	State   ThresholdState `json:"threshold_state"`
}

// Severity classifies a single finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
)

// Actionable reports whether the severity counts toward alert_count.
func (s Severity) Actionable() bool {
	return s == SeverityWarn || s == SeverityCritical
}

// Alert is a single actionable finding, always derived from a DiffResult or
// ProbeResult and never persisted on its own. Source is internal routing
// context; the published element is exactly {timestamp, severity, message}.
type Alert struct {
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
	Source    string    `json:"-"`
	Message   string    `json:"message"`
}

// NetworkState is the bring-up state machine's externally visible state.
type NetworkState string

const (
	NetUnknown          NetworkState = "UNKNOWN"
	NetLinkDown         NetworkState = "LINK_DOWN"
	NetLinkUp           NetworkState = "LINK_UP"
	NetAttemptManaged   NetworkState = "ATTEMPTING_MANAGED"
	NetAttemptLowLevel  NetworkState = "ATTEMPTING_LOW_LEVEL"
	NetAttemptRestart   NetworkState = "ATTEMPTING_SERVICE_RESTART"
	NetConnected        NetworkState = "CONNECTED"
	NetFailed           NetworkState = "FAILED"
	NetNeedsReauth      NetworkState = "NEEDS_REAUTH"
)

// Terminal reports whether the state machine stops at this state.
func (s NetworkState) Terminal() bool {
	switch s {
	case NetConnected, NetFailed, NetNeedsReauth:
		return true
	}
	return false
}

// RecentAlertCap bounds the recent_alerts sequence in the published record.
const RecentAlertCap = 20

// StatusRecord is the single external contract, published atomically as one
// JSON object after every engine invocation. Field names are parsed verbatim
// by downstream dashboards and must not change.
type StatusRecord struct {
	Timestamp       time.Time         `json:"timestamp"`
	AlertCount      int               `json:"alert_count"`
	DiskPct         float64           `json:"disk_pct"`
	MemPct          float64           `json:"mem_pct"`
	CPUTemp         float64           `json:"cpu_temp"`
	FailedAuthCount int               `json:"failed_auth_count"`
	ServiceStates   map[string]string `json:"service_states"`
	BannedPeerCount int               `json:"banned_peer_count"`
	BannedPeers     []string          `json:"banned_peers"`
	RecentAlerts    []Alert           `json:"recent_alerts"`
	DiscoveredPeers []string          `json:"discovered_peers"`
	NetworkState    NetworkState      `json:"network_state"`
}
