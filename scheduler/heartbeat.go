package scheduler

import (
	"context"
	"time"

	"github.com/mengeric/flowtask-go/client"
	"github.com/mengeric/flowtask-go/logging"
	"github.com/mengeric/flowtask-go/metrics"
)

// heartbeatSink 心跳上报出口。
type heartbeatSink interface {
	Heartbeat(ctx context.Context, hb client.WorkerHeartbeat) error
}

// HeartbeatScheduler 周期性上报 worker 心跳与系统指标。
type HeartbeatScheduler struct {
	sink       heartbeatSink
	workerAddr string
	interval   time.Duration
}

// NewHeartbeat 构造。
func NewHeartbeat(sink heartbeatSink, workerAddr string, seconds int) *HeartbeatScheduler {
	return &HeartbeatScheduler{sink: sink, workerAddr: workerAddr, interval: time.Duration(seconds) * time.Second}
}

// Start 启动心跳。
func (h *HeartbeatScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hb := client.WorkerHeartbeat{
					WorkerAddress: h.workerAddr,
					HeartbeatTime: time.Now().UnixMilli(),
					SystemMetrics: metrics.CollectSystemMetric(ctx),
				}
				if err := h.sink.Heartbeat(ctx, hb); err != nil {
					logging.L().Warn(ctx, "heartbeat failed", "err", err)
				}
			}
		}
	}()
}
