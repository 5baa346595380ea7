package probes

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/yairfalse/vigil/pkg/types"
)

const procMeminfo = "/proc/meminfo"

// DiskUsage reports used space on the filesystem holding path as a
// percentage of its capacity.
func DiskUsage(path string) types.ProbeResult {
	result := types.ProbeResult{Name: "disk", State: types.StateUnknown}

	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return result
	}
	total := st.Blocks * uint64(st.Bsize)
	if total == 0 {
		return result
	}
	avail := st.Bavail * uint64(st.Bsize)
	used := total - avail

	pct := 100.0 * float64(used) / float64(total)
	result.Value = pct
	result.Display = fmt.Sprintf("%.0f%%", pct)
	result.State = thresholdState(pct, DiskWarnPct, DiskCriticalPct)
	return result
}

// MemoryUsage reports used memory as a percentage of MemTotal, with
// MemAvailable as the free figure (falling back to MemFree on old kernels).
func MemoryUsage(meminfoPath string) types.ProbeResult {
	result := types.ProbeResult{Name: "memory", State: types.StateUnknown}

	data, err := os.ReadFile(meminfoPath)
	if err != nil {
		return result
	}
	pct, err := memPctFromMeminfo(string(data))
	if err != nil {
		return result
	}
	result.Value = pct
	result.Display = fmt.Sprintf("%.0f%%", pct)
	result.State = thresholdState(pct, MemWarnPct, MemCriticalPct)
	return result
}

func memPctFromMeminfo(content string) (float64, error) {
	var total, available, free float64
	haveAvailable := false
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = value
		case "MemAvailable:":
			available = value
			haveAvailable = true
		case "MemFree:":
			free = value
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("MemTotal missing")
	}
	if !haveAvailable {
		available = free
	}
	return 100.0 * (total - available) / total, nil
}

// LoadAndUptime reads the 1-minute load average and uptime seconds for
// debug telemetry. Not part of the published contract.
func LoadAndUptime() (load float64, uptime float64, err error) {
	loadData, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return 0, 0, err
	}
	if fields := strings.Fields(string(loadData)); len(fields) > 0 {
		load, _ = strconv.ParseFloat(fields[0], 64)
	}

	upData, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0, 0, err
	}
	if fields := strings.Fields(string(upData)); len(fields) > 0 {
		uptime, _ = strconv.ParseFloat(fields[0], 64)
	}
	return load, uptime, nil
}

// CPUTemperature reads the thermal zone in millidegrees Celsius.
func CPUTemperature(zonePath string) types.ProbeResult {
	result := types.ProbeResult{Name: "cpu_temp", State: types.StateUnknown}

	data, err := os.ReadFile(zonePath)
	if err != nil {
		return result
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return result
	}
	temp := milli / 1000.0
	result.Value = temp
	result.Display = fmt.Sprintf("%.0fC", temp)
	result.State = thresholdState(temp, TempWarnC, TempCriticalC)
	return result
}
