package hostinfo

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// UnknownHostname is reported when the local host name cannot be resolved.
const UnknownHostname = "unknown"

// cpuSampleInterval is how long Get samples CPU usage.
const cpuSampleInterval = 200 * time.Millisecond

// Info holds host information (hostname, IP, OS, CPU, memory).
type Info struct {
	Hostname           string  `json:"hostname"`
	HostIP             string  `json:"host_ip"`
	OS                 string  `json:"os"`
	Platform           string  `json:"platform"`
	KernelVersion      string  `json:"kernel_version"`
	UptimeSeconds      uint64  `json:"uptime_seconds"`
	CPUInfo            string  `json:"cpu_info"`
	CPUUsagePercent    float64 `json:"cpu_usage_percent"`
	MemoryTotalMB      uint64  `json:"memory_total_mb"`
	MemoryUsedMB       uint64  `json:"memory_used_mb"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
}

// Hostname returns the configured host name, or UnknownHostname when it cannot
// be resolved.
func Hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return UnknownHostname
	}
	return name
}

// Get returns host info. Fields that cannot be read on this platform are left zero.
func Get() (Info, error) {
	h := Info{Hostname: Hostname()}
	if ifaces, err := Interfaces(); err == nil {
		h.HostIP = primaryIPv4(ifaces)
	}
	if hi, err := host.Info(); err == nil {
		h.OS = hi.OS
		h.Platform = hi.Platform
		h.KernelVersion = hi.KernelVersion
		h.UptimeSeconds = hi.Uptime
	}
	h.CPUInfo = "unknown"
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 && infos[0].ModelName != "" {
		h.CPUInfo = infos[0].ModelName
	}
	if pct, err := cpu.Percent(cpuSampleInterval, false); err == nil && len(pct) > 0 {
		h.CPUUsagePercent = pct[0]
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return h, err
	}
	h.MemoryTotalMB = vm.Total >> 20
	h.MemoryUsedMB = vm.Used >> 20
	h.MemoryUsagePercent = vm.UsedPercent
	return h, nil
}

func primaryIPv4(ifaces []Interface) string {
	for _, iface := range ifaces {
		for _, p := range iface.Addrs {
			if a := p.Addr(); a.Is4() && !a.IsLoopback() {
				return a.String()
			}
		}
	}
	return ""
}
