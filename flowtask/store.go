package flowtask

import "context"

// InstanceStore 任务实例存储接口（可由宿主实现或使用内置 gormstore）。
type InstanceStore interface {
	// Get 按 (taskID, instanceID) 读取实例；不存在返回 ErrInstanceNotFound。
	Get(ctx context.Context, taskID, instanceID string) (*Instance, error)
	// Patch 对实例做部分更新；空 Patch 不产生写。
	Patch(ctx context.Context, taskID, instanceID string, p *Patch) error
	// Save 插入或整体覆盖实例（实例由外部创建后写入）。
	Save(ctx context.Context, ins *Instance) error
	// Delete 删除实例记录。
	Delete(ctx context.Context, taskID, instanceID string) error
	// ListRunning 列出运行中实例（进度上报用）。
	ListRunning(ctx context.Context) ([]Instance, error)
}

// ItemContext 终端节点上一条数据项的结果记录。
type ItemContext struct {
	ID            string
	TraceID       string
	FlowContextID string
	NodeID        string
	Status        Status
	ErrorMsg      string
	// Data 产生该结果的业务负载（JSON 文本）
	Data string
}

// StatusFilter 结果分页的状态过滤。
type StatusFilter string

const (
	// FilterAll 不过滤
	FilterAll StatusFilter = "all"
	// FilterArchived 仅成功归档项
	FilterArchived StatusFilter = "archived"
	// FilterError 仅失败项
	FilterError StatusFilter = "error"
	// FilterFinished 全部已到终态的项
	FilterFinished StatusFilter = "finished"
)

// ContextQuery 结果记录的查询条件。
type ContextQuery struct {
	FlowContextID string
	// TraceID 可选；非空时只看该次投递
	TraceID  string
	NodeID   string
	Filter   StatusFilter
	PageNum  int
	PageSize int
}

// ContextStore 数据项结果记录的查询接口；分页与计数分别下发专用查询。
type ContextStore interface {
	Page(ctx context.Context, q ContextQuery) ([]ItemContext, error)
	Count(ctx context.Context, q ContextQuery) (int64, error)
	// DeleteByFlowContext 清理一个事务名下的全部记录（删除任务时调用）。
	DeleteByFlowContext(ctx context.Context, flowContextID string) error
}
