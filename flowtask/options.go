package flowtask

import "time"

// Options 编排器运行参数。
// 功能：描述引擎地址、锁与追加点通道等行为；不含任何 Web 框架配置。
type Options struct {
	EngineAddr    string        // 流程引擎地址，如 127.0.0.1:7700（未注入 FlowEngine 时使用）
	WorkerAddress string        // 向引擎上报的 worker 外部可见地址
	AppendBuffer  int           // 追加点通道缓冲容量
	LockTTL       time.Duration // 实例锁过期时间（内置锁提供方使用）
	LockWait      time.Duration // 抢锁最长等待
}

// withDefaults 填充默认值。
func (o *Options) withDefaults() {
	if o.EngineAddr == "" {
		o.EngineAddr = "127.0.0.1:7700"
	}
	if o.AppendBuffer <= 0 {
		o.AppendBuffer = 256
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 30 * time.Second
	}
	if o.LockWait <= 0 {
		o.LockWait = 10 * time.Second
	}
}
