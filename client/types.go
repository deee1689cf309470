package client

// 以下类型对应流程引擎开放的控制面协议，字段命名与引擎文档一致或等价。

// CommonResp 统一响应包装。
type CommonResp[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// StartFlowReq 启动一次全新流程事务（/flow/start）。
type StartFlowReq struct {
	FlowID  string         `json:"flowId"`
	Version int            `json:"flowVersion"`
	Params  map[string]any `json:"params"`
}

// ContinueFlowReq 在既有事务上续跑流程（/flow/continue），用于部分重试。
type ContinueFlowReq struct {
	FlowID        string         `json:"flowId"`
	Version       int            `json:"flowVersion"`
	FlowContextID string         `json:"flowContextId"`
	Params        map[string]any `json:"params"`
}

// RegisterStreamReq 在运行中的流程节点上注册一个命名插入点（/flow/registerStream）。
type RegisterStreamReq struct {
	StreamID string `json:"streamId"`
	FlowID   string `json:"flowId"`
	Version  int    `json:"flowVersion"`
	NodeID   string `json:"nodeId"`
}

// AppendReq 向已注册的插入点投递一批数据（/flow/append）。
type AppendReq struct {
	StreamID      string           `json:"streamId"`
	TraceID       string           `json:"traceId"`
	FlowContextID string           `json:"flowContextId"`
	Items         []map[string]any `json:"items"`
}

// FlowDefinition 流程定义的精简视图；EndNodeID 为结果所在的终端节点。
type FlowDefinition struct {
	FlowID    string `json:"flowId"`
	Version   int    `json:"flowVersion"`
	EndNodeID string `json:"endNodeId"`
}

// ErrorRecord 单条数据项的失败明细。
type ErrorRecord struct {
	ItemID  string `json:"itemId"`
	NodeID  string `json:"nodeId"`
	Message string `json:"message"`
}

// InstanceProgressReport 实例进度上报（供引擎侧粘性路由参考）。
type InstanceProgressReport struct {
	TaskID          string  `json:"taskId"`
	InstanceID      string  `json:"taskInstanceId"`
	Status          string  `json:"status"`
	ProgressPercent float64 `json:"progressPercent"`
	ReportTime      int64   `json:"reportTime"`
	SourceAddress   string  `json:"sourceAddress"`
}

// WorkerHeartbeat 心跳包。
type WorkerHeartbeat struct {
	WorkerAddress string       `json:"workerAddress"`
	HeartbeatTime int64        `json:"heartbeatTime"`
	SystemMetrics SystemMetric `json:"systemMetrics"`
}

// SystemMetric 系统指标，引擎据此为回调分配负载较低的 worker。
type SystemMetric struct {
	CPULoad        float64 `json:"cpuLoad"`
	CPUProcessors  int     `json:"cpuProcessors"`
	DiskTotalGB    float64 `json:"diskTotal"`
	DiskUsageRatio float64 `json:"diskUsage"`
	DiskUsedGB     float64 `json:"diskUsed"`
	ProcMaxMemory  float64 `json:"procMaxMemory"`
	ProcMemUsage   float64 `json:"procMemoryUsage"`
	ProcUsedMemory float64 `json:"procUsedMemory"`
	Score          float64 `json:"score"`
}
