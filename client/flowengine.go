package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mengeric/flowtask-go/delivery"
	"github.com/mengeric/flowtask-go/logging"
)

// FlowEngine 定义与流程引擎控制面的交互接口，便于 gomock 打桩。
// 功能：封装事务启动/续跑、聚合状态、终止、归档与删除、错误明细、定义查询、
// 插入点注册以及进度/心跳上报。
type FlowEngine interface {
	// StartFlow 启动全新事务，返回事务 ID。
	StartFlow(ctx context.Context, flowID string, version int, params map[string]any) (string, error)
	// ContinueFlow 在既有事务上续跑（部分重试的续传入口）。
	ContinueFlow(ctx context.Context, flowID string, version int, flowContextID string, params map[string]any) error
	// AggregateStatus 计算事务当前聚合状态。
	AggregateStatus(ctx context.Context, flowContextID string) (string, error)
	// Terminate 终止事务。
	Terminate(ctx context.Context, flowContextID string) error
	// RegisterInsertionPoint 在指定节点上注册插入点，并把 src 中投递的数据持续转发给引擎。
	RegisterInsertionPoint(ctx context.Context, streamID, flowID string, version int, nodeID string, src delivery.Source) error
	// ArchiveTraces 把一批 trace 下的数据项记录标记为归档。
	ArchiveTraces(ctx context.Context, traceIDs []string) error
	// DeleteItems 删除引擎侧的数据项记录。
	DeleteItems(ctx context.Context, itemIDs []string) error
	// ErrorDetail 查询一条 trace 下所有失败项的明细。
	ErrorDetail(ctx context.Context, traceID string) ([]ErrorRecord, error)
	// ResolveDefinitionByStreamID 按流 ID 反查流程定义（含终端节点）。
	ResolveDefinitionByStreamID(ctx context.Context, streamID string) (*FlowDefinition, error)
	// ReportInstanceProgress 上报实例进度。
	ReportInstanceProgress(ctx context.Context, rep InstanceProgressReport) error
	// Heartbeat 上报 worker 心跳。
	Heartbeat(ctx context.Context, hb WorkerHeartbeat) error
}

// ErrEngineResponse 引擎返回 success=false。
var ErrEngineResponse = errors.New("flow engine responded failure")

// AddrProvider 提供当前引擎地址；由 scheduler.Discovery 动态刷新。
type AddrProvider interface{ Get() string }

// StaticAddr 固定地址实现。
type StaticAddr string

func (s StaticAddr) Get() string { return string(s) }

// HTTPFlowEngine 实现 FlowEngine。
// 转发协程挂在 fwdCtx 下，与任何单次调用方的 ctx 解耦，直到 Close 才整体退出。
type HTTPFlowEngine struct {
	hc      *http.Client
	addr    AddrProvider
	fwdCtx  context.Context
	fwdStop context.CancelFunc
}

var _ FlowEngine = (*HTTPFlowEngine)(nil)

// NewHTTPFlowEngine 构造 HTTP 实现；addr 通常传入 scheduler.Discovery 或 StaticAddr。
func NewHTTPFlowEngine(addr AddrProvider) *HTTPFlowEngine {
	ctx, cancel := context.WithCancel(context.Background())
	return &HTTPFlowEngine{
		hc:      &http.Client{Timeout: 8 * time.Second},
		addr:    addr,
		fwdCtx:  ctx,
		fwdStop: cancel,
	}
}

// Close 停掉全部插入点转发协程。进程退出前调用。
func (h *HTTPFlowEngine) Close() { h.fwdStop() }

// Acquire 从引导地址获取当前活跃的引擎地址（供 Discovery 周期调用）。
func (h *HTTPFlowEngine) Acquire(ctx context.Context, bootstrap, currentServer, clientVersion string) (string, error) {
	v := url.Values{}
	if currentServer != "" {
		v.Set("currentServer", currentServer)
	}
	if clientVersion != "" {
		v.Set("clientVersion", clientVersion)
	}
	u := fmt.Sprintf("http://%s/flow/acquire?%s", bootstrap, v.Encode())
	var resp CommonResp[string]
	if err := h.get(ctx, u, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: acquire: %s", ErrEngineResponse, resp.Message)
	}
	return resp.Data, nil
}

// StartFlow 启动一次全新事务。
// 参数：flowID/version 标识流程定义，params 为注入任务标识后的业务配置。
// 返回：引擎分配的事务 ID。
func (h *HTTPFlowEngine) StartFlow(ctx context.Context, flowID string, version int, params map[string]any) (string, error) {
	var resp CommonResp[string]
	req := StartFlowReq{FlowID: flowID, Version: version, Params: params}
	if err := h.post(ctx, h.url("/flow/start"), req, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: start: %s", ErrEngineResponse, resp.Message)
	}
	return resp.Data, nil
}

// ContinueFlow 在既有事务上续跑。
func (h *HTTPFlowEngine) ContinueFlow(ctx context.Context, flowID string, version int, flowContextID string, params map[string]any) error {
	var resp CommonResp[any]
	req := ContinueFlowReq{FlowID: flowID, Version: version, FlowContextID: flowContextID, Params: params}
	if err := h.post(ctx, h.url("/flow/continue"), req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: continue: %s", ErrEngineResponse, resp.Message)
	}
	return nil
}

// AggregateStatus 查询事务聚合状态。
func (h *HTTPFlowEngine) AggregateStatus(ctx context.Context, flowContextID string) (string, error) {
	u := h.url("/flow/status") + "?flowContextId=" + url.QueryEscape(flowContextID)
	var resp CommonResp[string]
	if err := h.get(ctx, u, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: status: %s", ErrEngineResponse, resp.Message)
	}
	return resp.Data, nil
}

// Terminate 终止事务。
func (h *HTTPFlowEngine) Terminate(ctx context.Context, flowContextID string) error {
	var resp CommonResp[any]
	body := map[string]any{"flowContextId": flowContextID}
	if err := h.post(ctx, h.url("/flow/terminate"), body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: terminate: %s", ErrEngineResponse, resp.Message)
	}
	return nil
}

// RegisterInsertionPoint 注册插入点并启动转发协程。
// 功能：先向引擎声明 streamId 与节点的绑定，再常驻消费 src 中的投递消息，
// 逐条转发到 /flow/append；src 关闭或引擎客户端 Close 后退出。
// 入参 ctx 只约束注册请求本身：追加点会被缓存复用，转发协程的存续期
// 必须长于首个注册调用方。
// 异常：注册失败即返回；转发失败仅记录日志，由引擎侧按 trace 去重容错。
func (h *HTTPFlowEngine) RegisterInsertionPoint(ctx context.Context, streamID, flowID string, version int, nodeID string, src delivery.Source) error {
	var resp CommonResp[any]
	req := RegisterStreamReq{StreamID: streamID, FlowID: flowID, Version: version, NodeID: nodeID}
	if err := h.post(ctx, h.url("/flow/registerStream"), req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: registerStream: %s", ErrEngineResponse, resp.Message)
	}
	go h.forward(h.fwdCtx, streamID, src)
	return nil
}

// forward 常驻转发循环。
func (h *HTTPFlowEngine) forward(ctx context.Context, streamID string, src delivery.Source) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-src.Done():
			return
		case msg := <-src.Recv():
			var resp CommonResp[any]
			req := AppendReq{StreamID: streamID, TraceID: msg.TraceID, FlowContextID: msg.FlowContextID, Items: msg.Items}
			err := h.post(ctx, h.url("/flow/append"), req, &resp)
			if err == nil && !resp.Success {
				err = fmt.Errorf("%w: append: %s", ErrEngineResponse, resp.Message)
			}
			if err != nil {
				logging.L().Errorf(ctx, "forward append failed: stream=%s trace=%s err=%v", streamID, msg.TraceID, err)
			}
		}
	}
}

// ArchiveTraces 归档一批 trace 的数据项记录。
func (h *HTTPFlowEngine) ArchiveTraces(ctx context.Context, traceIDs []string) error {
	var resp CommonResp[any]
	body := map[string]any{"traceIds": traceIDs}
	if err := h.post(ctx, h.url("/flow/archiveTraces"), body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: archiveTraces: %s", ErrEngineResponse, resp.Message)
	}
	return nil
}

// DeleteItems 删除引擎侧数据项记录。
func (h *HTTPFlowEngine) DeleteItems(ctx context.Context, itemIDs []string) error {
	var resp CommonResp[any]
	body := map[string]any{"itemIds": itemIDs}
	if err := h.post(ctx, h.url("/flow/deleteItems"), body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: deleteItems: %s", ErrEngineResponse, resp.Message)
	}
	return nil
}

// ErrorDetail 查询失败项明细。
func (h *HTTPFlowEngine) ErrorDetail(ctx context.Context, traceID string) ([]ErrorRecord, error) {
	u := h.url("/flow/errorDetail") + "?traceId=" + url.QueryEscape(traceID)
	var resp CommonResp[[]ErrorRecord]
	if err := h.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: errorDetail: %s", ErrEngineResponse, resp.Message)
	}
	return resp.Data, nil
}

// ResolveDefinitionByStreamID 按流 ID 反查流程定义。
func (h *HTTPFlowEngine) ResolveDefinitionByStreamID(ctx context.Context, streamID string) (*FlowDefinition, error) {
	u := h.url("/flow/defByStream") + "?streamId=" + url.QueryEscape(streamID)
	var resp CommonResp[*FlowDefinition]
	if err := h.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("%w: defByStream: %s", ErrEngineResponse, resp.Message)
	}
	return resp.Data, nil
}

// ReportInstanceProgress 上报实例进度。
func (h *HTTPFlowEngine) ReportInstanceProgress(ctx context.Context, rep InstanceProgressReport) error {
	return h.post(ctx, h.url("/flow/reportProgress"), rep, nil)
}

// Heartbeat 上报心跳。
func (h *HTTPFlowEngine) Heartbeat(ctx context.Context, hb WorkerHeartbeat) error {
	return h.post(ctx, h.url("/flow/workerHeartbeat"), hb, nil)
}

func (h *HTTPFlowEngine) url(path string) string {
	return "http://" + h.addr.Get() + path
}

// get 执行 GET 请求并解码 JSON。
func (h *HTTPFlowEngine) get(ctx context.Context, url string, out any) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	res, err := h.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("GET %s => %d: %s", url, res.StatusCode, string(b))
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// post 执行 POST 请求并可选解码响应。
func (h *HTTPFlowEngine) post(ctx context.Context, u string, body any, out any) error {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	res, err := h.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		rb, _ := io.ReadAll(res.Body)
		return fmt.Errorf("POST %s => %d: %s", u, res.StatusCode, string(rb))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
