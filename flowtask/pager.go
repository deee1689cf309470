package flowtask

import (
	"context"
	"sync"

	"github.com/mengeric/flowtask-go/client"
	"github.com/mengeric/flowtask-go/logging"
)

// ItemOutcome 分页返回的单条结果。
type ItemOutcome struct {
	ID          string
	Status      Status
	ErrorDetail string
	// Data 产生该结果的业务负载（JSON 文本）
	Data string
}

// PageResult 一页结果与该过滤类别下的总数。
type PageResult struct {
	Total int64
	Items []ItemOutcome
}

// pager 结果分页器：按状态过滤翻页终端节点上的结果记录。
// 流程定义（含终端节点）按流 ID 反查并缓存，每个定义只解析一次。
type pager struct {
	engine   client.FlowEngine
	ctxStore ContextStore

	mu   sync.RWMutex
	defs map[string]*client.FlowDefinition
}

func newPager(engine client.FlowEngine, ctxStore ContextStore) *pager {
	return &pager{engine: engine, ctxStore: ctxStore, defs: map[string]*client.FlowDefinition{}}
}

// definition 解析并缓存流程定义。
func (p *pager) definition(ctx context.Context, streamID string) (*client.FlowDefinition, error) {
	p.mu.RLock()
	if d, ok := p.defs[streamID]; ok {
		p.mu.RUnlock()
		return d, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if d, ok := p.defs[streamID]; ok {
		return d, nil
	}
	d, err := p.engine.ResolveDefinitionByStreamID(ctx, streamID)
	if err != nil {
		return nil, err
	}
	p.defs[streamID] = d
	return d, nil
}

// page 执行一次分页查询。
// 功能：解析终端节点后下发分页与计数两条专用查询；失败项若缺本地错误文本，
// 再按 trace 去引擎取失败明细补齐。
func (p *pager) page(ctx context.Context, ins *Instance, traceID string, pageNum, pageSize int, filter StatusFilter) (*PageResult, error) {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	def, err := p.definition(ctx, StreamID(ins.FlowID, ins.FlowVersion))
	if err != nil {
		return nil, err
	}

	q := ContextQuery{
		FlowContextID: ins.FlowContextID,
		TraceID:       traceID,
		NodeID:        def.EndNodeID,
		Filter:        filter,
		PageNum:       pageNum,
		PageSize:      pageSize,
	}
	rows, err := p.ctxStore.Page(ctx, q)
	if err != nil {
		return nil, err
	}
	total, err := p.ctxStore.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	// 失败明细按 trace 聚合拉取，同一 trace 只查一次
	details := map[string]map[string]string{}
	out := make([]ItemOutcome, 0, len(rows))
	for _, r := range rows {
		detail := r.ErrorMsg
		if detail == "" && (r.Status == StatusError || r.Status == StatusPartialError) && r.TraceID != "" {
			byItem, ok := details[r.TraceID]
			if !ok {
				byItem = map[string]string{}
				recs, derr := p.engine.ErrorDetail(ctx, r.TraceID)
				if derr != nil {
					logging.L().Warnf(ctx, "fetch error detail failed: trace=%s err=%v", r.TraceID, derr)
				} else {
					for _, rec := range recs {
						byItem[rec.ItemID] = rec.Message
					}
				}
				details[r.TraceID] = byItem
			}
			detail = byItem[r.ID]
		}
		out = append(out, ItemOutcome{ID: r.ID, Status: r.Status, ErrorDetail: detail, Data: r.Data})
	}
	return &PageResult{Total: total, Items: out}, nil
}
