package stat

import (
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot 主机资源快照
type Snapshot struct {
	CPUPercent  float64   `json:"cpu_percent"`  // CPU 使用率
	Load1       float64   `json:"load1"`        // 1 分钟平均负载
	MemTotal    uint64    `json:"mem_total"`    // 内存总量
	MemUsed     uint64    `json:"mem_used"`     // 已用内存
	MemPercent  float64   `json:"mem_percent"`  // 内存使用率
	DiskTotal   uint64    `json:"disk_total"`   // 磁盘总量
	DiskUsed    uint64    `json:"disk_used"`    // 已用磁盘
	DiskPercent float64   `json:"disk_percent"` // 磁盘使用率
	CollectedAt time.Time `json:"collected_at"`
}

// Collect 采集一次资源快照
// path 指定磁盘用量统计的挂载点，通常传工作目录
func Collect(path string) *Snapshot {
	s := Snapshot{CollectedAt: time.Now()}

	if percents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	}
	if avg, err := load.Avg(); err == nil {
		s.Load1 = avg.Load1
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotal = vm.Total
		s.MemUsed = vm.Used
		s.MemPercent = vm.UsedPercent
	}
	if du, err := disk.Usage(path); err == nil {
		s.DiskTotal = du.Total
		s.DiskUsed = du.Used
		s.DiskPercent = du.UsedPercent
	}
	return &s
}
