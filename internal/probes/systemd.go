package probes

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/yairfalse/vigil/pkg/types"
)

// serviceChecker resolves the active state of named systemd units.
type serviceChecker interface {
	ActiveState(ctx context.Context, unit string) (string, error)
}

// dbusChecker talks to systemd over the system bus. The connection is
// established on first use and reused across watch ticks.
type dbusChecker struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

func newDBusChecker() *dbusChecker {
	return &dbusChecker{}
}

func (d *dbusChecker) connect() (*dbus.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return d.conn, nil
	}
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	d.conn = conn
	return conn, nil
}

// ActiveState returns the unit's ActiveState property (active, inactive,
// failed, ...).
func (d *dbusChecker) ActiveState(ctx context.Context, unit string) (string, error) {
	conn, err := d.connect()
	if err != nil {
		return "", err
	}

	if !hasServiceSuffix(unit) {
		unit += ".service"
	}

	var unitPath dbus.ObjectPath
	manager := conn.Object("org.freedesktop.systemd1", "/org/freedesktop/systemd1")
	err = manager.CallWithContext(ctx, "org.freedesktop.systemd1.Manager.LoadUnit", 0, unit).Store(&unitPath)
	if err != nil {
		return "", fmt.Errorf("failed to load unit %s: %w", unit, err)
	}

	var state string
	obj := conn.Object("org.freedesktop.systemd1", unitPath)
	err = obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0,
		"org.freedesktop.systemd1.Unit", "ActiveState").Store(&state)
	if err != nil {
		return "", fmt.Errorf("failed to get ActiveState for %s: %w", unit, err)
	}
	return state, nil
}

// serviceLiveness resolves the configured service list to contract states
// (active, inactive, unknown) plus one probe result per service.
func (r *Runner) serviceLiveness(ctx context.Context) (map[string]string, []types.ProbeResult) {
	states := make(map[string]string, len(r.cfg.Services))
	results := make([]types.ProbeResult, 0, len(r.cfg.Services))

	for _, name := range r.cfg.Services {
		result := types.ProbeResult{Name: "service:" + name}

		active, err := r.services.ActiveState(ctx, name)
		if err != nil {
			states[name] = "unknown"
			result.State = types.StateUnknown
			results = append(results, result)
			continue
		}

		result.Display = active
		switch active {
		case "active":
			states[name] = "active"
			result.State = types.StateOK
		case "failed":
			states[name] = "inactive"
			result.State = types.StateCritical
		default:
			states[name] = "inactive"
			result.State = types.StateWarn
		}
		results = append(results, result)
	}
	return states, results
}

func hasServiceSuffix(name string) bool {
	return len(name) > 8 && name[len(name)-8:] == ".service"
}
