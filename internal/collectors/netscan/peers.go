// Package netscan discovers network peers from the kernel neighbor table.
// This collector is more expensive than the host collectors and only runs in
// deep-scan mode.
package netscan

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/yairfalse/vigil/pkg/types"
)

// PeerCollector lists reachable neighbors on one interface via `ip neigh`.
type PeerCollector struct {
	iface   string
	timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewPeerCollector creates a collector for the given interface.
func NewPeerCollector(iface string, timeout time.Duration) *PeerCollector {
	return &PeerCollector{
		iface:   iface,
		timeout: timeout,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

func (c *PeerCollector) Category() types.Category { return types.CategoryPeers }

// Collect returns "ip mac" entries for neighbors the kernel considers live.
// FAILED and INCOMPLETE neighbors are noise, not peers.
func (c *PeerCollector) Collect(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.run(ctx, "ip", "neigh", "show", "dev", c.iface)
	if err != nil {
		return nil, fmt.Errorf("listing neighbors on %s: %w", c.iface, err)
	}
	return ParseNeighbors(string(out)), nil
}

// ParseNeighbors extracts "ip mac" pairs from `ip neigh show dev <iface>`
// output. Lines without a lladdr (unresolved neighbors) are dropped.
func ParseNeighbors(out string) []string {
	var entries []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		state := fields[len(fields)-1]
		if state == "FAILED" || state == "INCOMPLETE" {
			continue
		}
		var mac string
		for i, f := range fields {
			if f == "lladdr" && i+1 < len(fields) {
				mac = fields[i+1]
				break
			}
		}
		if mac == "" {
			continue
		}
		entries = append(entries, fields[0]+" "+mac)
	}
	return entries
}
