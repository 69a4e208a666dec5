package preflight

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostReport summarizes the resources of the machine renders run on.
// Fields that could not be read are left zero and listed in Warnings.
type HostReport struct {
	Hostname      string   `json:"hostname"`
	Platform      string   `json:"platform"`
	Kernel        string   `json:"kernel"`
	LogicalCPUs   int      `json:"logical_cpus"`
	MemoryTotal   uint64   `json:"memory_total"`
	MemoryFree    uint64   `json:"memory_available"`
	Load1         float64  `json:"load1"`
	RootDiskTotal uint64   `json:"root_disk_total"`
	RootDiskFree  uint64   `json:"root_disk_free"`
	Warnings      []string `json:"warnings,omitempty"`
}

// InspectHost collects a HostReport. rootDir is the project root whose
// filesystem usage is reported.
func InspectHost(ctx context.Context, rootDir string) HostReport {
	var report HostReport
	warn := func(what string, err error) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", what, err))
	}

	if info, err := host.InfoWithContext(ctx); err != nil {
		warn("host info", err)
	} else {
		report.Hostname = info.Hostname
		report.Platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		report.Kernel = info.KernelVersion
	}
	if count, err := cpu.CountsWithContext(ctx, true); err != nil {
		warn("cpu count", err)
	} else {
		report.LogicalCPUs = count
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		warn("memory", err)
	} else {
		report.MemoryTotal = vm.Total
		report.MemoryFree = vm.Available
	}
	if avg, err := load.AvgWithContext(ctx); err != nil {
		warn("load average", err)
	} else {
		report.Load1 = avg.Load1
	}
	if rootDir != "" {
		if usage, err := disk.UsageWithContext(ctx, rootDir); err != nil {
			warn("disk usage", err)
		} else {
			report.RootDiskTotal = usage.Total
			report.RootDiskFree = usage.Free
		}
	}
	return report
}
