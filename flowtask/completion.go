package flowtask

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"

	"github.com/mengeric/flowtask-go/logging"
)

// CompletionEvent 引擎在事务达到终态聚合状态时发布的完成事件。
type CompletionEvent struct {
	FlowContextID string `json:"flowContextId"`
	// Status 引擎判定的终态聚合状态
	Status Status `json:"status"`
	// StartPayload 事务起始节点的业务负载，从中反解归属任务
	StartPayload json.RawMessage `json:"startPayload"`
}

// OnTransactionCompleted 完成追踪：决定归属实例能否就此收尾。
// 功能：从启动负载反解 taskId/taskInstanceId；尽力执行外部清理（失败只记录）；
// 然后锁内依次弃权判定 —— 事务已被替换、实例已终态（本回调、空批哨兵与迟到的
// 扫描事件可能并发竞争同一次收尾）、scanStatus 仍为 RUNNING（还有数据在路上，
// 收尾推迟到扫描结束事件）；全部通过才落终态字段。
func (o *Orchestrator) OnTransactionCompleted(ctx context.Context, evt CompletionEvent) error {
	taskID := gjson.GetBytes(evt.StartPayload, "taskId").String()
	instanceID := gjson.GetBytes(evt.StartPayload, "taskInstanceId").String()
	if taskID == "" || instanceID == "" {
		return fmt.Errorf("%w: flowContext=%s", ErrMissingOwner, evt.FlowContextID)
	}

	if o.cleaner != nil {
		if err := o.cleaner.Cleanup(ctx, taskID, instanceID); err != nil {
			logging.L().Warnf(ctx, "cleanup failed (ignored): instance=%s err=%v", instanceID, err)
		}
	}

	_, err := o.updater.Update(ctx, taskID, instanceID, func(cur *Instance) *Patch {
		if cur.FlowContextID != evt.FlowContextID {
			logging.L().Debug(ctx, "completion for superseded context", "instance", instanceID,
				"eventContext", evt.FlowContextID, "currentContext", cur.FlowContextID)
			return nil
		}
		if cur.Status.Terminal() {
			return nil
		}
		if cur.Extensions.ScanStatus == ScanRunning {
			logging.L().Info(ctx, "completion deferred, scan still running", "instance", instanceID)
			return nil
		}
		return o.finalPatch(ctx, cur, evt.Status)
	})
	return err
}

// finalPatch 计算收尾字段；完成回调与空批哨兵共用。
// 注意：processed_num 追平 file_num 时无条件按成功收尾，且进度补到 100 ——
// 这会覆盖引擎上报的失败性状态，可能掩盖在别处计数的单条失败；该规则待产品确认。
func (o *Orchestrator) finalPatch(ctx context.Context, cur *Instance, agg Status) *Patch {
	now := time.Now()
	st := agg
	pct := cur.ProgressPercent
	if agg == StatusArchived && cur.FileNum == 0 {
		pct = 100
	}
	if cur.FileNum > 0 && cur.ProcessedNum >= cur.FileNum {
		st = StatusArchived
		pct = 100
	}
	p := &Patch{Status: ptr(st), FinishTime: &now}
	if pct > cur.ProgressPercent {
		p.ProgressPercent = &pct
	}
	logging.L().Info(ctx, "instance finalized", "task", cur.TaskID, "instance", cur.InstanceID,
		"status", string(st), "percent", pct)
	return p
}

// CompletionConsumer 订阅引擎发布的"事务完成"事件并驱动完成追踪。
// 把引擎内部调度与本核心的反应逻辑解耦为消息消费。
type CompletionConsumer struct {
	rdb     redis.UniversalClient
	channel string
	orch    *Orchestrator
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCompletionConsumer 构造。
// 参数：channel 为引擎约定的完成事件频道名。
func NewCompletionConsumer(rdb redis.UniversalClient, channel string, orch *Orchestrator) *CompletionConsumer {
	return &CompletionConsumer{rdb: rdb, channel: channel, orch: orch}
}

// Start 启动后台订阅协程；生命周期受 ctx 控制。
func (c *CompletionConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	sub := c.rdb.Subscribe(ctx, c.channel)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt CompletionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					logging.L().Errorf(ctx, "bad completion event: %v payload=%s", err, msg.Payload)
					continue
				}
				if err := c.orch.OnTransactionCompleted(ctx, evt); err != nil {
					logging.L().Errorf(ctx, "handle completion failed: flowContext=%s err=%v", evt.FlowContextID, err)
				}
			}
		}
	}()
}

// Stop 停止订阅并等待协程退出。
func (c *CompletionConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}
