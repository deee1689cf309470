package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mengeric/flowtask-go/logging"
)

// acquirer 仅需要从引导地址换取活跃引擎地址的能力。
type acquirer interface {
	Acquire(ctx context.Context, bootstrap, currentServer, clientVersion string) (string, error)
}

// Discovery 周期性刷新真实引擎地址；实现 client.AddrProvider。
type Discovery struct {
	api       acquirer
	bootstrap string
	version   string
	interval  time.Duration
	running   atomic.Bool
	current   atomic.Value // string
}

// NewDiscovery 构造实例。
func NewDiscovery(api acquirer, bootstrap, version string, seconds int) *Discovery {
	d := &Discovery{api: api, bootstrap: bootstrap, version: version, interval: time.Duration(seconds) * time.Second}
	d.current.Store(bootstrap)
	return d
}

// Start 启动定时任务。
func (d *Discovery) Start(ctx context.Context) {
	if d.running.Swap(true) {
		return
	}
	ticker := time.NewTicker(d.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cur := d.Get()
				addr, err := d.api.Acquire(ctx, d.bootstrap, cur, d.version)
				if err != nil {
					logging.L().Warnf(ctx, "acquire engine failed: %v", err)
					continue
				}
				if addr != "" {
					d.current.Store(addr)
				}
			}
		}
	}()
}

// Get 返回当前引擎地址。
func (d *Discovery) Get() string {
	v := d.current.Load()
	if v == nil {
		return d.bootstrap
	}
	return v.(string)
}
