package flowtask

import (
	"errors"
	"math"
	"time"
)

// Status 任务实例状态，与引擎侧事务聚合状态共用同一组取值。
type Status string

const (
	StatusInit         Status = "INIT"
	StatusRunning      Status = "RUNNING"
	StatusPartialError Status = "PARTIAL_ERROR"
	StatusError        Status = "ERROR"
	StatusTerminate    Status = "TERMINATE"
	StatusArchived     Status = "ARCHIVED"
)

// Terminal 判断是否终态。PARTIAL_ERROR 不是终态：残留失败项仍可被部分重试。
func (s Status) Terminal() bool {
	return s == StatusArchived || s == StatusError || s == StatusTerminate
}

// ScanStatus 扫描阶段标记：RUNNING 表示仍会有新批次到达，END 表示发现阶段结束。
type ScanStatus string

const (
	ScanRunning ScanStatus = "RUNNING"
	ScanEnd     ScanStatus = "END"
)

// Extensions 实例的前向兼容扩展字段。
// 默认规则：ScanStatus 为空视为 END；FirstScan 为空视为 false。
type Extensions struct {
	ScanStatus ScanStatus `json:"scanStatus,omitempty"`
	FirstScan  bool       `json:"firstScan,omitempty"`
}

// Instance 任务实例：一次任务定义的执行，持有可变的进度与状态。
// 字段语义见各注释；FileNum/ProcessedNum/ProgressPercent 均单调非减。
type Instance struct {
	TaskID     string
	InstanceID string

	Status Status

	// FlowID/FlowVersion 标识所用流程定义
	FlowID      string
	FlowVersion int
	// FlowContextID 当前活跃事务 ID；部分重试时整体替换
	FlowContextID string
	// FlowParams 调用方提供的流程业务配置，start/retry 时注入任务标识后下发
	FlowParams map[string]any

	// FileNum 已发现数据项计数；ProcessedNum 已完成数据项计数
	FileNum      int64
	ProcessedNum int64
	// CleaningData 累计已处理字节数
	CleaningData int64
	// ProgressPercent 派生进度，保留两位小数，生命周期内不允许回退
	ProgressPercent float64

	Extensions Extensions

	StartTime  time.Time
	FinishTime *time.Time
}

// DataItem 追加批次中的单条数据。
type DataItem struct {
	// NodeMetaID 目标入口节点
	NodeMetaID string
	// FlowContextID 产生该条数据时的事务 ID；与存量不一致时整批丢弃
	FlowContextID string
	// ContextData 业务负载，必填
	ContextData map[string]any
}

// RetryItem 待重投的失败项。
type RetryItem struct {
	// ItemID 引擎侧数据项记录 ID（重试前删除）
	ItemID string
	// TraceID 原始投递 trace（重试前归档）
	TraceID string
	// Data 重投的业务负载
	Data map[string]any
}

// Patch 实例状态的部分更新；nil 字段不写。
// Updater 对 nil 或空 Patch 不落库（弃权语义）。
type Patch struct {
	Status          *Status
	FlowContextID   *string
	FileNum         *int64
	ProcessedNum    *int64
	CleaningData    *int64
	ProgressPercent *float64
	Extensions      *Extensions
	StartTime       *time.Time
	FinishTime      *time.Time
	// ClearFinishTime 置空 FinishTime（start/retry 重置时使用）
	ClearFinishTime bool
}

// Empty 判断是否为空更新。
func (p *Patch) Empty() bool {
	if p == nil {
		return true
	}
	return p.Status == nil && p.FlowContextID == nil && p.FileNum == nil &&
		p.ProcessedNum == nil && p.CleaningData == nil && p.ProgressPercent == nil &&
		p.Extensions == nil && p.StartTime == nil && p.FinishTime == nil && !p.ClearFinishTime
}

// Apply 把补丁应用到实例上（存储实现复用）。
func (p *Patch) Apply(ins *Instance) {
	if p == nil {
		return
	}
	if p.Status != nil {
		ins.Status = *p.Status
	}
	if p.FlowContextID != nil {
		ins.FlowContextID = *p.FlowContextID
	}
	if p.FileNum != nil {
		ins.FileNum = *p.FileNum
	}
	if p.ProcessedNum != nil {
		ins.ProcessedNum = *p.ProcessedNum
	}
	if p.CleaningData != nil {
		ins.CleaningData = *p.CleaningData
	}
	if p.ProgressPercent != nil {
		ins.ProgressPercent = *p.ProgressPercent
	}
	if p.Extensions != nil {
		ins.Extensions = *p.Extensions
	}
	if p.StartTime != nil {
		ins.StartTime = *p.StartTime
	}
	if p.FinishTime != nil {
		ins.FinishTime = p.FinishTime
	}
	if p.ClearFinishTime {
		ins.FinishTime = nil
	}
}

var (
	// ErrInstanceNotFound 任务实例不存在。
	ErrInstanceNotFound = errors.New("flowtask: instance not found")
	// ErrNoTransaction 实例尚无活跃事务。
	ErrNoTransaction = errors.New("flowtask: no active flow transaction")
	// ErrRetryCountMismatch 重试前置校验失败：file_num != processed_num + retryCount。
	ErrRetryCountMismatch = errors.New("flowtask: file/processed count mismatch for retry")
	// ErrMissingContextData 追加数据缺少业务负载。
	ErrMissingContextData = errors.New("flowtask: data item missing contextData")
	// ErrMixedBatch 同批数据项的事务 ID 或目标节点不一致。
	ErrMixedBatch = errors.New("flowtask: batch items span flow contexts or nodes")
	// ErrMissingOwner 完成事件的启动负载中缺少任务标识。
	ErrMissingOwner = errors.New("flowtask: completion payload missing task identity")
)

func ptr[T any](v T) *T { return &v }

// round2 保留两位小数。
func round2(v float64) float64 { return math.Round(v*100) / 100 }
