// Package sysinfo collects host resource utilisation for heartbeat
// reporting. Collection is best-effort: any probe that fails leaves its
// field zeroed rather than failing the heartbeat.
package sysinfo

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	goprocess "github.com/shirou/gopsutil/v4/process"

	proto "github.com/habbes/sandstorm/proto"
)

// Collect returns a snapshot of current host resource usage.
func Collect() *proto.ResourceUsage {
	usage := &proto.ResourceUsage{}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		usage.CpuPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		usage.MemoryBytes = int64(vm.Used)
	}
	if du, err := disk.Usage("/"); err == nil {
		usage.DiskBytes = int64(du.Used)
	}
	if pids, err := goprocess.Pids(); err == nil {
		usage.ProcessCount = int32(len(pids))
	}

	return usage
}
