package scheduler

import (
	"context"
	"time"

	"github.com/mengeric/flowtask-go/client"
	"github.com/mengeric/flowtask-go/flowtask"
	"github.com/mengeric/flowtask-go/logging"
)

// Running 最小化的运行中实例视图。
type Running struct {
	TaskID     string
	InstanceID string
	Status     string
	Percent    float64
}

// runningLister 仅需要列出运行中实例的精简信息，避免与具体存储强耦合。
type runningLister interface {
	ListRunning(ctx context.Context) ([]Running, error)
}

// instanceSource 实例存储侧的运行中列表，由 flowtask.InstanceStore 满足。
type instanceSource interface {
	ListRunning(ctx context.Context) ([]flowtask.Instance, error)
}

// StoreLister 把实例存储适配成上报所需的精简视图。
// 用法：NewReporter(engine, scheduler.NewStoreLister(orch.Store()), ...)。
type StoreLister struct {
	src instanceSource
}

// NewStoreLister 构造。
func NewStoreLister(src instanceSource) *StoreLister { return &StoreLister{src: src} }

func (l *StoreLister) ListRunning(ctx context.Context) ([]Running, error) {
	list, err := l.src.ListRunning(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Running, 0, len(list))
	for _, ins := range list {
		out = append(out, Running{
			TaskID:     ins.TaskID,
			InstanceID: ins.InstanceID,
			Status:     string(ins.Status),
			Percent:    ins.ProgressPercent,
		})
	}
	return out, nil
}

// progressSink 进度上报出口。
type progressSink interface {
	ReportInstanceProgress(ctx context.Context, rep client.InstanceProgressReport) error
}

// ProgressReporter 周期性上报运行中实例的进度；
// 引擎侧的粘性路由过滤器据此把同实例的回调尽量发往同一 worker。
type ProgressReporter struct {
	sink     progressSink
	repo     runningLister
	worker   string
	interval time.Duration
}

// NewReporter 构造。
func NewReporter(sink progressSink, repo runningLister, worker string, seconds int) *ProgressReporter {
	return &ProgressReporter{sink: sink, repo: repo, worker: worker, interval: time.Duration(seconds) * time.Second}
}

// Start 启动上报任务。
func (r *ProgressReporter) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				list, err := r.repo.ListRunning(ctx)
				if err != nil {
					logging.L().Warn(ctx, "list running failed", "err", err)
					continue
				}
				for _, it := range list {
					rep := client.InstanceProgressReport{
						TaskID:          it.TaskID,
						InstanceID:      it.InstanceID,
						Status:          it.Status,
						ProgressPercent: it.Percent,
						ReportTime:      time.Now().UnixMilli(),
						SourceAddress:   r.worker,
					}
					if err := r.sink.ReportInstanceProgress(ctx, rep); err != nil {
						logging.L().Warn(ctx, "report progress failed", "instance", it.InstanceID, "err", err)
					}
				}
			}
		}
	}()
}
