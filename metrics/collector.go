package metrics

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/mengeric/flowtask-go/client"
)

// 打分权重：引擎的粘性路由按 Score 选 worker，负载越高扣分越多。
const (
	cpuWeight  = 5
	diskWeight = 20
	memWeight  = 30
)

const bytesPerGB = 1024 * 1024 * 1024

// CollectSystemMetric 采集心跳上报所需的系统与进程指标。
// 功能：CPU 一分钟负载、根分区磁盘占用、本进程内存占用，任一项采集失败
// 保持零值，不影响其余字段；最后汇总为 Score。
func CollectSystemMetric(ctx context.Context) client.SystemMetric {
	var out client.SystemMetric
	out.CPUProcessors = runtime.NumCPU()
	if avg, err := load.AvgWithContext(ctx); err == nil {
		out.CPULoad = avg.Load1
	}
	collectDisk(ctx, &out)
	collectProcMem(ctx, &out)
	out.Score = scoreOf(out)
	return out
}

func collectDisk(ctx context.Context, out *client.SystemMetric) {
	du, err := disk.UsageWithContext(ctx, "/")
	if err != nil || du.Total == 0 {
		return
	}
	out.DiskTotalGB = toGB(du.Total)
	out.DiskUsedGB = toGB(du.Used)
	out.DiskUsageRatio = du.UsedPercent / 100.0
}

func collectProcMem(ctx context.Context, out *client.SystemMetric) {
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm.Total > 0 {
		out.ProcMaxMemory = toGB(vm.Total)
	}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}
	pm, err := p.MemoryInfoWithContext(ctx)
	if err != nil || pm == nil {
		return
	}
	out.ProcUsedMemory = toGB(pm.RSS)
	if out.ProcMaxMemory > 0 {
		out.ProcMemUsage = out.ProcUsedMemory / out.ProcMaxMemory
	}
}

// scoreOf 满分 100，按各维度占用线性扣分，下限 0。
func scoreOf(m client.SystemMetric) float64 {
	score := 100.0
	score -= m.CPULoad * cpuWeight
	score -= m.DiskUsageRatio * diskWeight
	score -= m.ProcMemUsage * memWeight
	if score < 0 {
		return 0
	}
	return score
}

func toGB(b uint64) float64 { return float64(b) / bytesPerGB }

// SleepForSampling 给依赖瞬时采样的指标留出窗口。
func SleepForSampling() { time.Sleep(50 * time.Millisecond) }
