package flowtask

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mengeric/flowtask-go/client"
	"github.com/mengeric/flowtask-go/delivery"
	"github.com/mengeric/flowtask-go/lock"
	"github.com/mengeric/flowtask-go/logging"
)

// Cleaner 实例收尾时的外部资源清理（如卸载挂载的资源）。
// 失败只记录，不阻断收尾。
type Cleaner interface {
	Cleanup(ctx context.Context, taskID, instanceID string) error
}

// Orchestrator 编排器主对象：任务实例的启动、追加、重试、终止、删除与结果分页。
// 并发模型：所有状态变更经由 Updater 的单临界区原语串行化；
// 临界区内不做引擎网络调用（空批哨兵与扫描收尾的聚合状态查询除外，
// 见 Append 与 OnScanBatch）。
type Orchestrator struct {
	opt      Options
	engine   client.FlowEngine
	store    InstanceStore
	ctxStore ContextStore
	updater  *Updater
	registry *Registry
	cleaner  Cleaner
	pager    *pager
}

type orchConfig struct {
	opt      Options
	engine   client.FlowEngine
	store    InstanceStore
	ctxStore ContextStore
	locks    lock.Provider
	cleaner  Cleaner
}

// Option 构造可选项。
type Option func(*orchConfig)

// WithOptions 整体设置 Options。
func WithOptions(o Options) Option { return func(c *orchConfig) { c.opt = o } }

// WithFlowEngine 注入引擎客户端（默认按 EngineAddr 创建 HTTP 实现）。
func WithFlowEngine(e client.FlowEngine) Option { return func(c *orchConfig) { c.engine = e } }

// WithInstanceStore 注入实例存储（默认内置内存实现）。
func WithInstanceStore(s InstanceStore) Option { return func(c *orchConfig) { c.store = s } }

// WithContextStore 注入结果记录存储（默认内置内存实现）。
func WithContextStore(s ContextStore) Option { return func(c *orchConfig) { c.ctxStore = s } }

// WithLockProvider 注入分布式锁提供方（默认进程内锁，多副本部署必须换 Redis 实现）。
func WithLockProvider(p lock.Provider) Option { return func(c *orchConfig) { c.locks = p } }

// WithCleaner 注入收尾清理钩子。
func WithCleaner(cl Cleaner) Option { return func(c *orchConfig) { c.cleaner = cl } }

// New 创建编排器。
// 功能：按照 With... 可选项组合出可运行的编排器；未显式注入的依赖使用内置实现。
func New(opts ...Option) *Orchestrator {
	cfg := &orchConfig{}
	for _, fn := range opts {
		fn(cfg)
	}
	cfg.opt.withDefaults()
	if cfg.engine == nil {
		cfg.engine = client.NewHTTPFlowEngine(client.StaticAddr(cfg.opt.EngineAddr))
	}
	if cfg.store == nil {
		// 避免 import cycle：默认使用包内置的内存实现
		cfg.store = newDefaultMemStore()
	}
	if cfg.ctxStore == nil {
		cfg.ctxStore = newDefaultContextStore()
	}
	if cfg.locks == nil {
		cfg.locks = lock.NewMemoryProvider()
	}
	o := &Orchestrator{
		opt:      cfg.opt,
		engine:   cfg.engine,
		store:    cfg.store,
		ctxStore: cfg.ctxStore,
		updater:  NewUpdater(cfg.store, cfg.locks),
		registry: NewRegistry(cfg.engine, cfg.opt.AppendBuffer),
		cleaner:  cfg.cleaner,
	}
	o.pager = newPager(cfg.engine, cfg.ctxStore)
	return o
}

// Store 返回实例存储（进度上报等外围任务复用）。
func (o *Orchestrator) Store() InstanceStore { return o.store }

// Registry 返回追加点注册表。
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Start 启动任务实例：为其分配首个流程事务。
// 功能：注入 taskId/taskInstanceId 后启动全新事务，并无条件重置全部进度字段。
// 此处无需加锁：实例尚无并发写者。
// 返回：新事务 ID。
func (o *Orchestrator) Start(ctx context.Context, taskID, instanceID string) (string, error) {
	ins, err := o.store.Get(ctx, taskID, instanceID)
	if err != nil {
		return "", err
	}
	params := cloneParams(ins.FlowParams)
	params["taskId"] = taskID
	params["taskInstanceId"] = instanceID

	txID, err := o.engine.StartFlow(ctx, ins.FlowID, ins.FlowVersion, params)
	if err != nil {
		return "", fmt.Errorf("start flow: %w", err)
	}

	now := time.Now()
	p := &Patch{
		Status:          ptr(StatusRunning),
		FlowContextID:   &txID,
		FileNum:         ptr(int64(0)),
		ProcessedNum:    ptr(int64(0)),
		CleaningData:    ptr(int64(0)),
		ProgressPercent: ptr(0.0),
		Extensions:      &Extensions{},
		StartTime:       &now,
		ClearFinishTime: true,
	}
	if err := o.store.Patch(ctx, taskID, instanceID, p); err != nil {
		return "", err
	}
	logging.L().Info(ctx, "task started", "task", taskID, "instance", instanceID, "flowContext", txID)
	return txID, nil
}

// Append 向运行中的实例追加一批数据。
// 空批是"不会再有数据"的哨兵：锁内查询事务聚合状态，若已终态则套用与完成
// 回调相同的收尾字段，并无条件置 scanStatus=END。
// 非空批：锁内校验批次事务 ID 与存量一致（不一致说明事务已被重试替换，整批
// 静默丢弃），一致则累加 file_num；锁释放后再解析追加点并发布数据 —— 发布
// 不在临界区内，接受计数先于数据落地的小窗口。
func (o *Orchestrator) Append(ctx context.Context, taskID, instanceID string, items []DataItem) error {
	if len(items) == 0 {
		return o.appendSentinel(ctx, taskID, instanceID)
	}
	batchTx := items[0].FlowContextID
	nodeID := items[0].NodeMetaID
	// 一批必须同属一个事务、投向同一个节点，事务 ID 与追加点都按整批解析
	for i := range items {
		if len(items[i].ContextData) == 0 {
			return fmt.Errorf("%w: index %d", ErrMissingContextData, i)
		}
		if items[i].FlowContextID != batchTx || items[i].NodeMetaID != nodeID {
			return fmt.Errorf("%w: index %d", ErrMixedBatch, i)
		}
	}

	pre, err := o.updater.Update(ctx, taskID, instanceID, func(cur *Instance) *Patch {
		if cur.FlowContextID != batchTx {
			return nil
		}
		return &Patch{FileNum: ptr(cur.FileNum + int64(len(items)))}
	})
	if err != nil {
		return err
	}
	if pre.FlowContextID != batchTx {
		logging.L().Info(ctx, "drop stale batch", "task", taskID, "instance", instanceID,
			"batchContext", batchTx, "currentContext", pre.FlowContextID, "count", len(items))
		return nil
	}

	point, err := o.registry.GetOrCreate(ctx, pre.FlowID, pre.FlowVersion, nodeID)
	if err != nil {
		return err
	}
	payloads := make([]map[string]any, 0, len(items))
	for _, it := range items {
		payloads = append(payloads, it.ContextData)
	}
	return point.Ch.Publish(ctx, delivery.Message{
		TraceID:       uuid.NewString(),
		FlowContextID: batchTx,
		Items:         payloads,
	})
}

// appendSentinel 空批哨兵处理。
func (o *Orchestrator) appendSentinel(ctx context.Context, taskID, instanceID string) error {
	_, err := o.updater.Update(ctx, taskID, instanceID, func(cur *Instance) *Patch {
		p := &Patch{}
		if cur.FlowContextID != "" && !cur.Status.Terminal() {
			agg, aggErr := o.engine.AggregateStatus(ctx, cur.FlowContextID)
			if aggErr != nil {
				logging.L().Warnf(ctx, "aggregate status failed: instance=%s err=%v", instanceID, aggErr)
			} else if Status(agg).Terminal() {
				p = o.finalPatch(ctx, cur, Status(agg))
			}
		}
		ext := cur.Extensions
		if p.Extensions != nil {
			ext = *p.Extensions
		}
		ext.ScanStatus = ScanEnd
		p.Extensions = &ext
		return p
	})
	return err
}

// Retry 部分重试：把此前失败的数据项重新投入同一个事务。
// 前置校验（任何变更之前）：事务必须已存在，且 file_num == processed_num + 重试数，
// 即除这批失败项外没有仍在途的结果。
// 复用原事务 ID 的原因：file_num/processed_num 在引擎侧按事务记账，
// 换新事务会悄悄丢掉已累计的文件清单。
func (o *Orchestrator) Retry(ctx context.Context, taskID, instanceID string, items []RetryItem) error {
	ins, err := o.store.Get(ctx, taskID, instanceID)
	if err != nil {
		return err
	}
	if ins.FlowContextID == "" {
		return ErrNoTransaction
	}
	if ins.FileNum != ins.ProcessedNum+int64(len(items)) {
		return fmt.Errorf("%w: file=%d processed=%d retry=%d",
			ErrRetryCountMismatch, ins.FileNum, ins.ProcessedNum, len(items))
	}

	// 原失败结果先归档再删除，后续聚合不再把它们算作失败
	traceIDs := make([]string, 0, len(items))
	itemIDs := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, it := range items {
		if _, ok := seen[it.TraceID]; !ok && it.TraceID != "" {
			seen[it.TraceID] = struct{}{}
			traceIDs = append(traceIDs, it.TraceID)
		}
		itemIDs = append(itemIDs, it.ItemID)
	}
	if err := o.engine.ArchiveTraces(ctx, traceIDs); err != nil {
		return fmt.Errorf("archive traces: %w", err)
	}
	if err := o.engine.DeleteItems(ctx, itemIDs); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	params := cloneParams(ins.FlowParams)
	params["taskId"] = taskID
	params["taskInstanceId"] = instanceID
	params["startType"] = "RETRY"
	retryData := make([]map[string]any, 0, len(items))
	for _, it := range items {
		retryData = append(retryData, it.Data)
	}
	params["retryItems"] = retryData

	if err := o.engine.ContinueFlow(ctx, ins.FlowID, ins.FlowVersion, ins.FlowContextID, params); err != nil {
		return fmt.Errorf("continue flow: %w", err)
	}

	now := time.Now()
	_, err = o.updater.Update(ctx, taskID, instanceID, func(cur *Instance) *Patch {
		return &Patch{
			Status:          ptr(StatusRunning),
			StartTime:       &now,
			Extensions:      &Extensions{},
			ClearFinishTime: true,
		}
	})
	if err != nil {
		return err
	}
	logging.L().Info(ctx, "task retried", "task", taskID, "instance", instanceID,
		"flowContext", ins.FlowContextID, "count", len(items))
	return nil
}

// Terminate 终止任务实例。
// 不等待在途回调排空：那些回调在观察到实例已终态后自行弃权。
func (o *Orchestrator) Terminate(ctx context.Context, taskID, instanceID string) error {
	ins, err := o.store.Get(ctx, taskID, instanceID)
	if err != nil {
		return err
	}
	if ins.FlowContextID != "" {
		if err := o.engine.Terminate(ctx, ins.FlowContextID); err != nil {
			return fmt.Errorf("terminate flow: %w", err)
		}
	}
	now := time.Now()
	_, err = o.updater.Update(ctx, taskID, instanceID, func(cur *Instance) *Patch {
		if cur.Status.Terminal() {
			return nil
		}
		return &Patch{Status: ptr(StatusTerminate), FinishTime: &now}
	})
	return err
}

// Delete 删除任务实例：先拆除其流程事务与结果记录，再移除实例本身。
func (o *Orchestrator) Delete(ctx context.Context, taskID, instanceID string) error {
	ins, err := o.store.Get(ctx, taskID, instanceID)
	if err != nil {
		return err
	}
	if ins.FlowContextID != "" {
		if err := o.engine.Terminate(ctx, ins.FlowContextID); err != nil {
			logging.L().Warnf(ctx, "terminate before delete failed: instance=%s err=%v", instanceID, err)
		}
		if err := o.ctxStore.DeleteByFlowContext(ctx, ins.FlowContextID); err != nil {
			return fmt.Errorf("delete contexts: %w", err)
		}
	}
	return o.store.Delete(ctx, taskID, instanceID)
}

// Page 结果分页，见 pager。
func (o *Orchestrator) Page(ctx context.Context, taskID, instanceID, traceID string, pageNum, pageSize int, filter StatusFilter) (*PageResult, error) {
	ins, err := o.store.Get(ctx, taskID, instanceID)
	if err != nil {
		return nil, err
	}
	return o.pager.page(ctx, ins, traceID, pageNum, pageSize, filter)
}

func cloneParams(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+3)
	for k, v := range in {
		out[k] = v
	}
	return out
}
