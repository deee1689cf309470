package flowtask

import (
	"context"
	"strconv"
	"strings"

	"github.com/mengeric/flowtask-go/logging"
)

// ItemFeedback 单条数据项完成回调的载荷（引擎 worker 每处理完一条数据触发一次，
// 到达顺序任意）。
type ItemFeedback struct {
	// FlowContextID 该条数据归属的事务 ID
	FlowContextID string
	// SizeRaw 该条数据的字节数（字符串形式；解析失败记日志并按 0 计，不致命）
	SizeRaw string
}

// ScanFeedback 批次发现（扫描）回调的载荷。与追加路径相互独立，
// 可能先于或晚于对应的追加调用到达。
type ScanFeedback struct {
	FlowContextID string
	// Count 本批新发现的数据项数
	Count int64
	ScanStatus ScanStatus
}

// OnItemCompleted 单条数据完成反馈。
// 功能：锁内校验事务 ID（不一致弃权），累加 processed_num 与已处理字节数。
// firstScan 尚未置位时只写计数 —— 扫描阶段未完成前分母（file_num）不稳定，
// 不计算百分比；否则按单调规则更新 progress_percent。
func (o *Orchestrator) OnItemCompleted(ctx context.Context, taskID, instanceID string, fb ItemFeedback) error {
	size := parseByteSize(ctx, instanceID, fb.SizeRaw)
	_, err := o.updater.Update(ctx, taskID, instanceID, func(cur *Instance) *Patch {
		if cur.FlowContextID != fb.FlowContextID {
			return nil
		}
		processed := cur.ProcessedNum + 1
		p := &Patch{
			ProcessedNum: &processed,
			CleaningData: ptr(cur.CleaningData + size),
		}
		if !cur.Extensions.FirstScan {
			return p
		}
		if pct, ok := progressOf(ctx, instanceID, processed, cur.FileNum, cur.ProgressPercent); ok {
			p.ProgressPercent = &pct
		}
		return p
	})
	return err
}

// OnScanBatch 批次发现反馈。
// 功能：锁内校验事务 ID；累加 file_num，按单调规则更新 progress_percent，
// 置位 firstScan。scanStatus 取来报值，但存量已是 END 时不再回写 ——
// 发现阶段一旦判定结束，迟到批次不得将其重新打开。
// 本次反馈把发现阶段推进到 END 时，还要补做一次收尾判定：完成事件可能
// 在扫描未结束时到达并被推迟，引擎不会重发，这里是它的接棒点。
func (o *Orchestrator) OnScanBatch(ctx context.Context, taskID, instanceID string, fb ScanFeedback) error {
	_, err := o.updater.Update(ctx, taskID, instanceID, func(cur *Instance) *Patch {
		if cur.FlowContextID != fb.FlowContextID {
			return nil
		}
		file := cur.FileNum + fb.Count
		p := &Patch{FileNum: &file}
		if pct, ok := progressOf(ctx, instanceID, cur.ProcessedNum, file, cur.ProgressPercent); ok {
			p.ProgressPercent = &pct
		}
		if fb.ScanStatus == ScanEnd && cur.Extensions.ScanStatus != ScanEnd && !cur.Status.Terminal() {
			agg, aggErr := o.engine.AggregateStatus(ctx, cur.FlowContextID)
			if aggErr != nil {
				logging.L().Warnf(ctx, "aggregate status failed: instance=%s err=%v", instanceID, aggErr)
			} else if Status(agg).Terminal() {
				after := *cur
				after.FileNum = file
				fin := o.finalPatch(ctx, &after, Status(agg))
				p.Status = fin.Status
				p.FinishTime = fin.FinishTime
				if fin.ProgressPercent != nil {
					p.ProgressPercent = fin.ProgressPercent
				}
			}
		}
		ext := cur.Extensions
		ext.FirstScan = true
		if ext.ScanStatus != ScanEnd && fb.ScanStatus != "" {
			ext.ScanStatus = fb.ScanStatus
		}
		p.Extensions = &ext
		return p
	})
	return err
}

// progressOf 计算进度百分比并套用单调保护。
// 返回 ok=false 表示无需回写（新值未超过存量，或分母不可用）。
// processed 超过 file 表明计数异常：告警并按 100 封顶。
func progressOf(ctx context.Context, instanceID string, processed, file int64, stored float64) (float64, bool) {
	var pct float64
	switch {
	case file <= 0:
		if processed <= 0 {
			return 0, false
		}
		logging.L().Warnf(ctx, "processed exceeds discovered: instance=%s processed=%d file=%d", instanceID, processed, file)
		pct = 100
	case processed > file:
		logging.L().Warnf(ctx, "processed exceeds discovered: instance=%s processed=%d file=%d", instanceID, processed, file)
		pct = 100
	default:
		pct = round2(float64(processed) / float64(file) * 100)
	}
	if pct <= stored {
		return 0, false
	}
	return pct, true
}

// parseByteSize 解析字节数字符串；失败记日志并按 0 计。
func parseByteSize(ctx context.Context, instanceID, raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		logging.L().Warnf(ctx, "unparseable item size: instance=%s raw=%q", instanceID, raw)
		return 0
	}
	return n
}
